package xbrl

// TargetFacts lists the us-gaap and dei facts the facts command reports by
// default.
var TargetFacts = []string{
	"Assets",
	"Liabilities",
	"StockholdersEquity",
	"Revenues",
	"RevenueFromContractWithCustomerExcludingAssessedTax",
	"NetIncomeLoss",
	"OperatingIncomeLoss",
	"EarningsPerShareBasic",
	"EarningsPerShareDiluted",
	"CommonStockSharesOutstanding",
	"CashAndCashEquivalentsAtCarryingValue",
	"LongTermDebt",
	"InterestExpense",
	"NetCashProvidedByUsedInOperatingActivities",
	"PaymentsToAcquirePropertyPlantAndEquipment",
	"EntityCommonStockSharesOutstanding",
	"DocumentFiscalYearFocus",
	"DocumentPeriodEndDate",
}
