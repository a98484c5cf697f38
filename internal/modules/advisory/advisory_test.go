package advisory

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/roadscan/internal/domain"
)

type stubCompleter struct {
	system, user string
	reply        string
	err          error
}

func (s *stubCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	s.system, s.user = system, user
	return s.reply, s.err
}

func testAssessment() domain.Assessment {
	return domain.Assessment{
		Path:     "/photos/Main_St.jpg",
		Location: "Main St",
		Color:    domain.ColorVector{0.5, 0, 0, 0.5, 0, 0, 0},
		Quantum:  domain.QuantumOutput{0.25, -0.5, 1, 0, 0, 0, 0},
		Entropy:  0.123456,
	}
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt(testAssessment(), Frame{})

	assert.Contains(t, p, "Highway 123 near Main St, South Carolina")
	assert.Contains(t, p, "Entropy Score: 0.1235")
	assert.Contains(t, p, "Color Vector: [0.5, 0, 0, 0.5, 0, 0, 0]")
	assert.Contains(t, p, "Quantum Output: [0.25, -0.5, 1, 0, 0, 0, 0]")
	for _, section := range []string{
		"### Hypertime Simulation Report",
		"### Signage & Safety Infrastructure Proposal",
		"### Preventative Mitigation Summary",
		"### Optional Quantum Enhancements",
	} {
		assert.Contains(t, p, section)
	}
}

func TestBuildPrompt_Deterministic(t *testing.T) {
	a := testAssessment()
	assert.Equal(t, BuildPrompt(a, DefaultFrame), BuildPrompt(a, DefaultFrame))
}

func TestBuildPrompt_CustomFrameAndEmptyLocation(t *testing.T) {
	a := testAssessment()
	a.Location = ""

	p := BuildPrompt(a, Frame{Route: "I-26", Region: "Georgia"})
	assert.Contains(t, p, "I-26 near an unnamed location, Georgia")
	assert.False(t, strings.Contains(p, "Highway 123"))
}

func TestAdvisor_Advise(t *testing.T) {
	stub := &stubCompleter{reply: "Add rumble strips at mile 4."}
	adv := NewAdvisor(stub, Frame{}, zerolog.New(nil).Level(zerolog.Disabled))

	out, err := adv.Advise(context.Background(), testAssessment())
	require.NoError(t, err)

	assert.Equal(t, "Add rumble strips at mile 4.", out)
	assert.Equal(t, SystemMessage, stub.system)
	assert.Equal(t, BuildPrompt(testAssessment(), DefaultFrame), stub.user)
}

func TestAdvisor_AdviseErrors(t *testing.T) {
	t.Run("untyped error becomes remote call", func(t *testing.T) {
		adv := NewAdvisor(&stubCompleter{err: errors.New("dial tcp: refused")}, Frame{}, zerolog.New(nil).Level(zerolog.Disabled))

		_, err := adv.Advise(context.Background(), testAssessment())
		assert.True(t, domain.IsKind(err, domain.KindRemoteCall))
	})

	t.Run("typed error passes through", func(t *testing.T) {
		typed := domain.Errorf(domain.KindRemoteCall, "chat completion", "HTTP 500")
		adv := NewAdvisor(&stubCompleter{err: typed}, Frame{}, zerolog.New(nil).Level(zerolog.Disabled))

		_, err := adv.Advise(context.Background(), testAssessment())
		assert.Equal(t, typed, err)
	})
}
