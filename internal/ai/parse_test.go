// internal/ai/parse_test.go
package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tavernlabs/liarsbar/internal/game"
)

func turnView() View {
	return View{
		Target:       game.FaceSun,
		Hand:         []game.Face{game.FaceSun, game.FaceMoon, game.FaceMagic, game.FaceStar},
		ClaimPending: true,
		ClaimSize:    2,
		AliveCount:   3,
		MaxClaim:     3,
	}
}

func TestParseDecisionJSON(t *testing.T) {
	v := turnView()

	d, err := ParseDecision(`{"action":"play","indices":[0,2]}`, v)
	require.NoError(t, err)
	assert.Equal(t, KindPlay, d.Kind)
	assert.Equal(t, []int{0, 2}, d.Indices)

	d, err = ParseDecision(`{"action":"challenge"}`, v)
	require.NoError(t, err)
	assert.Equal(t, KindChallenge, d.Kind)
}

func TestParseDecisionFencedJSON(t *testing.T) {
	raw := "Sure, here is my move:\n```json\n{\"action\":\"play\",\"indices\":[1]}\n```"
	d, err := ParseDecision(raw, turnView())
	require.NoError(t, err)
	assert.Equal(t, KindPlay, d.Kind)
	assert.Equal(t, []int{1}, d.Indices)
}

func TestParseDecisionPlainText(t *testing.T) {
	v := turnView()

	d, err := ParseDecision("I will CHALLENGE that.", v)
	require.NoError(t, err)
	assert.Equal(t, KindChallenge, d.Kind)

	d, err = ParseDecision("play 0 2", v)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, d.Indices)
}

func TestParseDecisionRejectsBadInput(t *testing.T) {
	v := turnView()

	cases := map[string]string{
		"empty":              "",
		"gibberish":          "I fold.",
		"unknown action":     `{"action":"discard","indices":[0]}`,
		"no indices":         `{"action":"play"}`,
		"oversized claim":    `{"action":"play","indices":[0,1,2,3]}`,
		"out of range index": `{"action":"play","indices":[9]}`,
		"negative index":     `{"action":"play","indices":[-1]}`,
		"duplicate index":    `{"action":"play","indices":[1,1]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDecision(raw, v)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestParseDecisionChallengeNeedsClaim(t *testing.T) {
	v := turnView()
	v.ClaimPending = false
	_, err := ParseDecision(`{"action":"challenge"}`, v)
	assert.ErrorIs(t, err, ErrMalformed)
}
