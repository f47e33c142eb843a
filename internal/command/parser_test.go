package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	c := NewCatalog()
	_, err := c.Register("SCHEDULE_HOST_DOWNTIME", -1, nil, "", "HOST=host_name;TIMESTAMP=start_time;TIMESTAMP=end_time;BOOL=fixed;ULONG=trigger_id;ULONG=duration;STRING=author;STRING=comment")
	require.NoError(t, err)
	_, err = c.Register("DISABLE_HOST_CHECK", -1, nil, "", "HOST=host_name")
	require.NoError(t, err)
	_, err = c.Register("PROCESS_SERVICE_CHECK_RESULT", -1, nil, "", "SERVICE=service;INT=return_code;STRING=output")
	require.NoError(t, err)
	return c
}

func TestParsePositionalBasic(t *testing.T) {
	p := NewParser(testCatalog(t), nil)
	cmd, res := p.Parse("[1609459200] DISABLE_HOST_CHECK;myhost")
	require.Equal(t, OK, res.Code)
	require.NotNil(t, cmd)
	v, ok := cmd.Arg("host_name")
	require.True(t, ok)
	assert.Equal(t, "myhost", v.StringV)
}

func TestParseMissingBracketIsMalformed(t *testing.T) {
	p := NewParser(testCatalog(t), nil)
	_, res := p.Parse("DISABLE_HOST_CHECK;myhost")
	assert.Equal(t, MalformedCommand, res.Code)
}

func TestParseUnknownCommand(t *testing.T) {
	p := NewParser(testCatalog(t), nil)
	_, res := p.Parse("[1609459200] NOT_A_REAL_COMMAND;arg")
	assert.Equal(t, UnknownCommand, res.Code)
}

func TestParseMissingArg(t *testing.T) {
	p := NewParser(testCatalog(t), nil)
	_, res := p.Parse("[1609459200] SCHEDULE_HOST_DOWNTIME;myhost;100;200")
	assert.Equal(t, ParseMissingArg, res.Code)
}

func TestParseServiceArgumentConsumesTwoTokens(t *testing.T) {
	p := NewParser(testCatalog(t), nil)
	cmd, res := p.Parse("[1609459200] PROCESS_SERVICE_CHECK_RESULT;myhost;HTTP;0;all good")
	require.Equal(t, OK, res.Code)
	v, ok := cmd.Arg("service")
	require.True(t, ok)
	assert.Equal(t, "myhost", v.HostName)
	assert.Equal(t, "HTTP", v.StringV)
	out, _ := cmd.Arg("output")
	assert.Equal(t, "all good", out.StringV)
}

func TestParseLastStringArgKeepsEmbeddedSemicolons(t *testing.T) {
	p := NewParser(testCatalog(t), nil)
	cmd, res := p.Parse("[1609459200] PROCESS_SERVICE_CHECK_RESULT;myhost;HTTP;2;CRITICAL: timeout; retrying")
	require.Equal(t, OK, res.Code)
	out, _ := cmd.Arg("output")
	assert.Equal(t, "CRITICAL: timeout; retrying", out.StringV)
}

func TestTimestampAndULongAreIndependentTerminalCases(t *testing.T) {
	p := NewParser(testCatalog(t), nil)
	cmd, res := p.Parse("[1609459200] SCHEDULE_HOST_DOWNTIME;myhost;1609459300;1609462900;1;0;3600;alice;maintenance")
	require.Equal(t, OK, res.Code)

	start, _ := cmd.Arg("start_time")
	assert.False(t, start.TimestampV.IsZero())
	dur, _ := cmd.Arg("duration")
	assert.Equal(t, uint64(3600), dur.ULongV)
}

func TestStrictNumericParsingRejectsTrailingGarbage(t *testing.T) {
	_, err := strictParseInt("12abc")
	assert.Error(t, err)
	_, err = strictParseULong("12abc")
	assert.Error(t, err)
	_, err = strictParseDouble("1.5abc")
	assert.Error(t, err)
}

func TestStrictNumericParsingRejectsEmpty(t *testing.T) {
	_, err := strictParseInt("")
	assert.Error(t, err)
	_, err = strictParseULong("")
	assert.Error(t, err)
}

func TestCustomCommandAccepted(t *testing.T) {
	p := NewParser(testCatalog(t), nil)
	cmd, res := p.Parse("[1609459200] _CUSTOM_DO_THING;arg1;arg2")
	require.Equal(t, CustomCommand, res.Code)
	require.NotNil(t, cmd)
	assert.True(t, cmd.Custom)
	assert.Equal(t, "_CUSTOM_DO_THING", cmd.CustomName)
}

func TestParseKeyValueBasic(t *testing.T) {
	p := NewParser(testCatalog(t), nil)
	cmd, res := p.ParseMode("command=DISABLE_HOST_CHECK;host_name=myhost", SyntaxKeyValue)
	require.Equal(t, OK, res.Code)
	v, ok := cmd.Arg("host_name")
	require.True(t, ok)
	assert.Equal(t, "myhost", v.StringV)
}

func TestParseKeyValueMissingCommandKey(t *testing.T) {
	p := NewParser(testCatalog(t), nil)
	_, res := p.ParseMode("host_name=myhost", SyntaxKeyValue)
	assert.Equal(t, MalformedCommand, res.Code)
}
