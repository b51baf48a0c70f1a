package xbrl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleInstance = `<?xml version="1.0" encoding="utf-8"?>
<xbrli:xbrl xmlns:xbrli="http://www.xbrl.org/2003/instance"
  xmlns:us-gaap="http://fasb.org/us-gaap/2022"
  xmlns:dei="http://xbrl.sec.gov/dei/2022"
  xmlns:xbrldi="http://xbrl.org/2006/xbrldi"
  xmlns:aapl="http://www.apple.com/20220924">
  <xbrli:context id="c-1">
    <xbrli:entity><xbrli:identifier scheme="http://www.sec.gov/CIK">0000320193</xbrli:identifier></xbrli:entity>
    <xbrli:period><xbrli:startDate>2021-09-26</xbrli:startDate><xbrli:endDate>2022-09-24</xbrli:endDate></xbrli:period>
  </xbrli:context>
  <xbrli:context id="c-2">
    <xbrli:entity><xbrli:identifier scheme="http://www.sec.gov/CIK">0000320193</xbrli:identifier></xbrli:entity>
    <xbrli:period><xbrli:instant>2022-09-24</xbrli:instant></xbrli:period>
  </xbrli:context>
  <xbrli:context id="c-3">
    <xbrli:entity>
      <xbrli:identifier scheme="http://www.sec.gov/CIK">0000320193</xbrli:identifier>
      <xbrli:segment><xbrldi:explicitMember dimension="us-gaap:StatementBusinessSegmentsAxis">aapl:AmericasSegmentMember</xbrldi:explicitMember></xbrli:segment>
    </xbrli:entity>
    <xbrli:period><xbrli:startDate>2021-09-26</xbrli:startDate><xbrli:endDate>2022-09-24</xbrli:endDate></xbrli:period>
  </xbrli:context>
  <xbrli:unit id="usd"><xbrli:measure>iso4217:USD</xbrli:measure></xbrli:unit>
  <dei:DocumentFiscalYearFocus contextRef="c-1" id="f-1">2022</dei:DocumentFiscalYearFocus>
  <us-gaap:NetIncomeLoss contextRef="c-1" decimals="-6" id="f-2" unitRef="usd">99803000000</us-gaap:NetIncomeLoss>
  <us-gaap:Assets contextRef="c-2" decimals="-6" id="f-3" unitRef="usd">352755000000</us-gaap:Assets>
  <us-gaap:NetIncomeLoss contextRef="c-3" decimals="-6" id="f-4" unitRef="usd">12000000000</us-gaap:NetIncomeLoss>
  <aapl:CustomMetric contextRef="c-1" decimals="0" id="f-5" unitRef="usd">7</aapl:CustomMetric>
  <us-gaap:SomeOtherFact contextRef="c-1" decimals="0" id="f-6" unitRef="usd">100</us-gaap:SomeOtherFact>
</xbrli:xbrl>`

func TestParseInstance(t *testing.T) {
	inst, err := ParseInstance(strings.NewReader(sampleInstance))
	require.NoError(t, err)

	require.Len(t, inst.Contexts, 3)
	assert.Equal(t, "2022-09-24", inst.Contexts["c-1"].Period())
	assert.Equal(t, "2021-09-26", inst.Contexts["c-1"].StartDate)
	assert.Equal(t, "2022-09-24", inst.Contexts["c-2"].Instant)
	assert.Equal(t, "0000320193", inst.Contexts["c-2"].EntityCIK)
	assert.True(t, inst.Contexts["c-3"].Dimension)
	assert.False(t, inst.Contexts["c-1"].Dimension)

	require.Len(t, inst.Facts, 6)
	f := inst.Facts[1]
	assert.Equal(t, "NetIncomeLoss", f.Name)
	assert.Equal(t, "http://fasb.org/us-gaap/2022", f.Namespace)
	assert.Equal(t, "us-gaap", f.Taxonomy())
	assert.Equal(t, "c-1", f.ContextRef)
	assert.Equal(t, "usd", f.UnitRef)
	assert.Equal(t, "-6", f.Decimals)
	assert.Equal(t, "f-2", f.ID)
	assert.Equal(t, "99803000000", f.Value)
	assert.Equal(t, "dei", inst.Facts[0].Taxonomy())
}

func TestParseInstance_Malformed(t *testing.T) {
	_, err := ParseInstance(strings.NewReader(`<xbrl><us-gaap:Assets contextRef="c">1`))
	assert.Error(t, err)
}

func TestParseInstance_Empty(t *testing.T) {
	inst, err := ParseInstance(strings.NewReader(`<xbrl/>`))
	require.NoError(t, err)
	assert.Empty(t, inst.Facts)
	assert.Empty(t, inst.Contexts)
}

func TestExtractTargetFacts(t *testing.T) {
	inst, err := ParseInstance(strings.NewReader(sampleInstance))
	require.NoError(t, err)

	facts := ExtractTargetFacts(inst, []string{"NetIncomeLoss", "Assets", "DocumentFiscalYearFocus", "CustomMetric"})
	require.Len(t, facts, 3)

	assert.Equal(t, ExtractedFact{Name: "DocumentFiscalYearFocus", Taxonomy: "dei", Period: "2022-09-24", Value: "2022"}, facts[0])
	assert.Equal(t, ExtractedFact{Name: "NetIncomeLoss", Taxonomy: "us-gaap", Period: "2022-09-24", Value: "99803000000", Unit: "usd", Decimals: "-6"}, facts[1])
	assert.Equal(t, "Assets", facts[2].Name)
	assert.Equal(t, "352755000000", facts[2].Value)
}

func TestExtractTargetFacts_NilInstance(t *testing.T) {
	assert.Nil(t, ExtractTargetFacts(nil, TargetFacts))
	assert.Nil(t, ExtractTargetFacts(&Instance{}, TargetFacts))
}

func TestTaxonomyOf(t *testing.T) {
	assert.Equal(t, "us-gaap", taxonomyOf("http://fasb.org/us-gaap/2023"))
	assert.Equal(t, "dei", taxonomyOf("http://xbrl.sec.gov/dei/2023"))
	assert.Equal(t, "srt", taxonomyOf("http://fasb.org/srt/2023"))
	assert.Equal(t, "http://example.com/x", taxonomyOf("http://example.com/x"))
}
