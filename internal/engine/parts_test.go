package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/clock"
	"github.com/ayusman/mudra/internal/frame"
)

var epoch0 = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func TestHandsLostFilter(t *testing.T) {
	t.Run("short gap stays present", func(t *testing.T) {
		f := NewHandsLostFilter(400 * time.Millisecond)
		require.True(t, f.Update(true, epoch0))

		for d := time.Duration(0); d < 400*time.Millisecond; d += 10 * time.Millisecond {
			assert.True(t, f.Update(false, epoch0.Add(30*time.Millisecond+d)), "at %s", d)
		}
		assert.True(t, f.Update(true, epoch0.Add(500*time.Millisecond)))
	})

	t.Run("absence reported at buffer boundary", func(t *testing.T) {
		f := NewHandsLostFilter(400 * time.Millisecond)
		lost := epoch0.Add(time.Second)

		assert.True(t, f.Update(false, lost))
		assert.True(t, f.Update(false, lost.Add(399*time.Millisecond)))
		assert.False(t, f.Update(false, lost.Add(400*time.Millisecond)))
		assert.False(t, f.Update(false, lost.Add(time.Minute)), "absence is never extended")
	})

	t.Run("presence restarts the window", func(t *testing.T) {
		f := NewHandsLostFilter(400 * time.Millisecond)
		f.Update(false, epoch0)
		f.Update(true, epoch0.Add(300*time.Millisecond))

		assert.True(t, f.Update(false, epoch0.Add(600*time.Millisecond)))
		assert.True(t, f.Update(false, epoch0.Add(999*time.Millisecond)))
		assert.False(t, f.Update(false, epoch0.Add(1000*time.Millisecond)))
	})

	t.Run("reset opens a new window", func(t *testing.T) {
		f := NewHandsLostFilter(400 * time.Millisecond)
		f.Update(false, epoch0)
		f.Reset()
		assert.True(t, f.Update(false, epoch0.Add(time.Second)))
	})
}

func seqFrames(n int) []frame.Frame {
	out := make([]frame.Frame, n)
	for i := range out {
		out[i] = frame.Frame{Seq: uint64(i + 1)}
	}
	return out
}

func seqs(frames []frame.Frame) []uint64 {
	out := make([]uint64, len(frames))
	for i, f := range frames {
		out[i] = f.Seq
	}
	return out
}

func TestRecording_CapKeepsAnchor(t *testing.T) {
	r := NewRecording(5)
	frames := seqFrames(8)

	r.Start(frames[0], epoch0)
	for i, f := range frames[1:] {
		r.Append(f, epoch0.Add(time.Duration(i+1)*100*time.Millisecond))
	}

	assert.True(t, r.Active())
	assert.Equal(t, []uint64{1, 5, 6, 7, 8}, seqs(r.Frames()))

	r.Reset()
	assert.False(t, r.Active())
	assert.Zero(t, r.Len())
	assert.Zero(t, r.Elapsed(epoch0.Add(time.Hour)))
}

func TestRecording_CaptureDue(t *testing.T) {
	r := NewRecording(25)
	r.Start(frame.Frame{Seq: 1}, epoch0)

	assert.False(t, r.CaptureDue(epoch0.Add(70*time.Millisecond), 70*time.Millisecond))
	assert.True(t, r.CaptureDue(epoch0.Add(71*time.Millisecond), 70*time.Millisecond))
	assert.Equal(t, 2*time.Second, r.Elapsed(epoch0.Add(2*time.Second)))
}

func TestSampleFrames(t *testing.T) {
	ints := func(n int) []int {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}

	tests := []struct {
		name   string
		n      int
		want   []int
		wantOK bool
	}{
		{name: "empty", n: 0, wantOK: false},
		{name: "below minimum", n: 2, wantOK: false},
		{name: "three kept", n: 3, want: []int{0, 1, 2}, wantOK: true},
		{name: "four kept", n: 4, want: []int{0, 1, 2, 3}, wantOK: true},
		{name: "five sampled", n: 5, want: []int{0, 1, 3, 4}, wantOK: true},
		{name: "ten sampled", n: 10, want: []int{0, 3, 6, 9}, wantOK: true},
		{name: "full buffer", n: 25, want: []int{0, 8, 16, 24}, wantOK: true},
		{name: "hundred", n: 100, want: []int{0, 33, 66, 99}, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SampleFrames(ints(tt.n), 3)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}

	t.Run("small input is copied", func(t *testing.T) {
		in := []int{7, 8, 9}
		out, ok := SampleFrames(in, 3)
		require.True(t, ok)
		out[0] = 0
		assert.Equal(t, 7, in[0])
	})
}

func TestContext_Merge(t *testing.T) {
	c := NewContext(15*time.Second, 30)
	require.True(t, c.Merge("Hello", "", epoch0))

	prepared := c.Prepare(epoch0.Add(time.Second))
	require.Equal(t, "Hello", prepared)

	assert.False(t, c.Merge("Hi", prepared, epoch0.Add(2*time.Second)), "shorter result must not regress context")
	assert.Equal(t, "Hello", c.Text())

	assert.False(t, c.Merge(" Hello ", prepared, epoch0.Add(2*time.Second)), "identical result is not stored")

	assert.True(t, c.Merge("Hello there", prepared, epoch0.Add(3*time.Second)))
	assert.Equal(t, "Hello there", c.Text())
}

func TestContext_MergeIgnoresPlaceholders(t *testing.T) {
	c := NewContext(15*time.Second, 30)
	for _, result := range []string{"", "   ", "...", " ... "} {
		assert.False(t, c.Merge(result, "", epoch0), "result %q", result)
	}
	assert.Empty(t, c.Text())
}

func TestContext_MergeAgainstTruncated(t *testing.T) {
	c := NewContext(15*time.Second, 3)
	require.True(t, c.Merge("one two three four five", "", epoch0))

	prepared := c.Prepare(epoch0)
	require.Equal(t, "...three four five", prepared)

	// compared against "three four five" without the marker
	assert.False(t, c.Merge("three four", prepared, epoch0))
	assert.True(t, c.Merge("three four five six", prepared, epoch0))
}

func TestContext_MergeCountsRunes(t *testing.T) {
	c := NewContext(15*time.Second, 30)
	require.True(t, c.Merge("café", "", epoch0))

	// "cafés" is one rune longer though several bytes differ
	assert.True(t, c.Merge("cafés", "café", epoch0))
	assert.False(t, c.Merge("olá", "cafés", epoch0))
}

func TestContext_Staleness(t *testing.T) {
	c := NewContext(15*time.Second, 30)
	require.True(t, c.Merge("Hello", "", epoch0))

	assert.Equal(t, "Hello", c.Prepare(epoch0.Add(15*time.Second)))
	assert.Empty(t, c.Prepare(epoch0.Add(15*time.Second+time.Millisecond)))
	assert.Empty(t, c.Text(), "stale context is discarded")
}

func TestContext_Truncation(t *testing.T) {
	c := NewContext(15*time.Second, 30)
	words := make([]string, 35)
	for i := range words {
		words[i] = "w" + strings.Repeat("x", i%3)
	}
	require.True(t, c.Merge(strings.Join(words, "  "), "", epoch0))

	got := c.Prepare(epoch0)
	require.True(t, strings.HasPrefix(got, "..."))
	assert.Equal(t, strings.Join(words[5:], " "), strings.TrimPrefix(got, "..."))
}

func TestContext_Reset(t *testing.T) {
	c := NewContext(15*time.Second, 30)
	c.Merge("Hola", "", epoch0)
	c.Reset()
	assert.Empty(t, c.Prepare(epoch0))
}

func TestGate(t *testing.T) {
	var g Gate

	require.True(t, g.Begin(epoch0))
	assert.True(t, g.InFlight())
	assert.False(t, g.Begin(epoch0), "second dispatch is dropped while one is outstanding")

	g.Finish()
	g.Cooldown(epoch0.Add(10 * time.Second))

	assert.True(t, g.RateLimited(epoch0.Add(9*time.Second)))
	assert.False(t, g.Begin(epoch0.Add(9*time.Second)))
	assert.False(t, g.RateLimited(epoch0.Add(10*time.Second)))
	assert.True(t, g.Begin(epoch0.Add(10*time.Second)))
}

func TestSilenceTimer(t *testing.T) {
	clk := clock.NewManual(epoch0)
	var fired []uint64
	var s *SilenceTimer
	s = NewSilenceTimer(clk, 1500*time.Millisecond, func(gen uint64) {
		if s.Fired(gen) {
			fired = append(fired, gen)
		}
	})

	s.Arm()
	s.Arm()
	assert.Equal(t, 1, clk.Pending(), "arming twice keeps one timer")
	assert.True(t, s.Pending())

	clk.Advance(1499 * time.Millisecond)
	assert.Empty(t, fired)
	clk.Advance(time.Millisecond)
	assert.Len(t, fired, 1)
	assert.False(t, s.Pending())

	s.Arm()
	s.Disarm()
	clk.Advance(time.Hour)
	assert.Len(t, fired, 1, "disarmed timer never fires")
}

func TestSilenceTimer_StaleFire(t *testing.T) {
	clk := clock.NewManual(epoch0)
	s := NewSilenceTimer(clk, time.Second, func(uint64) {})

	s.Arm()
	stale := s.gen
	s.Disarm()
	s.Arm()

	assert.False(t, s.Fired(stale), "a fire racing a disarm is ignored")
	assert.True(t, s.Fired(s.gen))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "start not above silence", mutate: func(c *Config) { c.StartThreshold = 0.03 }, wantErr: true},
		{name: "zero pause", mutate: func(c *Config) { c.SilencePause = 0 }, wantErr: true},
		{name: "negative buffer", mutate: func(c *Config) { c.HandsLostBuffer = -time.Second }, wantErr: true},
		{name: "tiny cap", mutate: func(c *Config) { c.FrameCap = 3 }, wantErr: true},
		{name: "zero min frames", mutate: func(c *Config) { c.MinFrames = 0 }, wantErr: true},
		{name: "no language", mutate: func(c *Config) { c.Language = "" }, wantErr: true},
		{name: "no words", mutate: func(c *Config) { c.ContextMaxWords = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}
