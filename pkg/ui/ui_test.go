package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"dankrank/pkg/harvester"
	"dankrank/pkg/manifest"
	"dankrank/pkg/models"
	"dankrank/pkg/rank"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	titles   []string
	messages []string
	err      error
}

func (s *recordingSender) Send(title, message string) error {
	s.titles = append(s.titles, title)
	s.messages = append(s.messages, message)
	return s.err
}

func TestPrinterPlainOutput(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, true)

	p.Info("Accounts", "3")
	p.Error("Harvest failed", errors.New("boom"))
	p.Success("done")

	out := buf.String()
	assert.Contains(t, out, "Accounts: 3")
	assert.Contains(t, out, "Harvest failed: boom")
	assert.Contains(t, out, "done")
	assert.NotContains(t, out, "\x1b[")
}

func TestRankingTable(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, true)

	m := &manifest.Manifest{
		Rank: manifest.Ranking{
			{Position: 1, Insta: "memes", NumLikes: 900, NumComments: 40, NumFollowers: 1000, DankRank: 0.0144,
				Download: &manifest.Download{Status: models.StatusDownloaded, Path: "/tmp/out/a1.jpg"}},
			{Position: 2, Insta: "dank", NumLikes: 10, NumComments: 1, NumFollowers: 500, DankRank: 0.00001,
				Download: &manifest.Download{Status: models.StatusFailed, Error: "not found"}},
		},
	}
	p.Ranking(m)

	out := buf.String()
	assert.Contains(t, out, "ACCOUNT")
	assert.Contains(t, out, "memes")
	assert.Contains(t, out, "a1.jpg")
	assert.Contains(t, out, "failed: not found")
	assert.Contains(t, out, "0.0144")
	assert.Less(t, strings.Index(out, "memes"), strings.Index(out, "dank "))
}

func TestRankingEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf, true).Ranking(&manifest.Manifest{})
	assert.Contains(t, buf.String(), "Nothing ranked")
}

func TestAccountsSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, true)

	p.Accounts([]harvester.AccountResult{
		{Account: "memes", Followers: 1000, Pages: 2, Stats: rank.Stats{Scored: 5, Skipped: 1, Stop: rank.StopWindow}},
		{Account: "ghost", Err: errors.New("account is private")},
	})

	out := buf.String()
	assert.Contains(t, out, "memes  1000 followers, 2 pages, 5 scored, 1 skipped, stop=window")
	assert.Contains(t, out, "ghost: account is private")
}

func TestFormatScore(t *testing.T) {
	assert.Equal(t, "0.0144", FormatScore(0.0144))
	assert.Equal(t, "1.234e-07", FormatScore(0.0000001234))
	assert.Equal(t, "0", FormatScore(0))
}

func TestNotifierForwardsToSender(t *testing.T) {
	var buf bytes.Buffer
	sender := &recordingSender{err: errors.New("no display")}
	n := NewNotifierWithSender(NewPrinter(&buf, true), sender)

	n.Success("dankrank", "10 items ranked")
	n.Failure("dankrank", "all accounts failed")

	require.Len(t, sender.titles, 2)
	assert.Equal(t, []string{"10 items ranked", "all accounts failed"}, sender.messages)
	assert.Contains(t, buf.String(), "dankrank: 10 items ranked")
	assert.Contains(t, buf.String(), "dankrank: all accounts failed")
}

func TestNotifierWithoutSender(t *testing.T) {
	var buf bytes.Buffer
	n := NewNotifierWithSender(NewPrinter(&buf, true), nil)
	n.Success("dankrank", "ok")
	assert.Contains(t, buf.String(), "dankrank: ok")
}

func TestAppleScriptString(t *testing.T) {
	assert.Equal(t, `"say \"hi\" \\ bye"`, appleScriptString(`say "hi" \ bye`))
}
