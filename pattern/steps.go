package pattern

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

var (
	ErrEmptyPattern = errors.New("pattern has no tracks")
	ErrUnknownKind  = errors.New("unknown track kind")
)

// Steps is a stack of tracks; each track splits every cycle into equal steps.
// A nil event is a rest.
type Steps struct {
	Tracks [][]Event
}

// Query returns every step whose span intersects arc, track by track.
func (s *Steps) Query(arc Arc) ([]Hap, error) {
	if len(s.Tracks) == 0 {
		return nil, ErrEmptyPattern
	}
	if arc.End <= arc.Start {
		return nil, nil
	}
	var haps []Hap
	first := math.Floor(arc.Start)
	for cycle := first; cycle < arc.End; cycle++ {
		for _, track := range s.Tracks {
			n := float64(len(track))
			for i, ev := range track {
				if ev == nil {
					continue
				}
				whole := Arc{Start: cycle + float64(i)/n, End: cycle + float64(i+1)/n}
				if whole.Intersects(arc) {
					haps = append(haps, Hap{Event: ev, Arc: whole})
				}
			}
		}
	}
	return haps, nil
}

// trackDoc is one track as written in a pattern file.
type trackDoc struct {
	Kind    string      `yaml:"kind"`
	Voice   int         `yaml:"voice"`
	Channel int         `yaml:"channel"`
	Line    int         `yaml:"line"`
	Name    string      `yaml:"name"`
	Steps   []yaml.Node `yaml:"steps"`
}

type fileDoc struct {
	Tracks []trackDoc `yaml:"tracks"`
}

// Load reads and parses a pattern file.
func Load(path string) (*Steps, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := Parse(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Parse builds a Steps pattern from YAML source. Each step event carries the
// byte span of its scalar in src, so triggers can be matched back to the text.
//
//	tracks:
//	  - kind: sample
//	    steps: [bd, ~, sn:1, ~]
//	  - kind: note
//	    channel: 1
//	    steps: [60, 63, ~, 67]
func Parse(src []byte) (*Steps, error) {
	var doc fileDoc
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return nil, err
	}
	if len(doc.Tracks) == 0 {
		return nil, ErrEmptyPattern
	}
	lines := lineOffsets(src)
	p := &Steps{}
	for ti, td := range doc.Tracks {
		if len(td.Steps) == 0 {
			continue
		}
		track := make([]Event, len(td.Steps))
		for si := range td.Steps {
			node := &td.Steps[si]
			if isRest(node) {
				continue
			}
			ev, err := stepEvent(td, node.Value)
			if err != nil {
				return nil, fmt.Errorf("track %d step %d (line %d): %w", ti, si, node.Line, err)
			}
			track[si] = WithLocation(ev, nodeLocation(node, src, lines))
		}
		p.Tracks = append(p.Tracks, track)
	}
	if len(p.Tracks) == 0 {
		return nil, ErrEmptyPattern
	}
	return p, nil
}

func isRest(node *yaml.Node) bool {
	if node.Tag == "!!null" {
		return true
	}
	return node.Value == "~" || node.Value == "." || node.Value == "-"
}

func stepEvent(td trackDoc, value string) (Event, error) {
	kind := strings.ToLower(td.Kind)
	switch kind {
	case "", "sample":
		name, n := value, 0
		if i := strings.IndexByte(value, ':'); i >= 0 {
			v, err := strconv.Atoi(value[i+1:])
			if err != nil {
				return nil, err
			}
			name, n = value[:i], v
		}
		return Sample{Name: name, N: n}, nil
	case "gate":
		return Gate{Voice: td.Voice}, nil
	case "control":
		if td.Name == "" {
			return nil, errors.New("control track needs a name")
		}
	}

	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "note":
		return Note{Channel: td.Channel, Note: v}, nil
	case "tune":
		return Tune{Voice: td.Voice, Semitones: v}, nil
	case "hold":
		return Hold{Voice: td.Voice, Level: v}, nil
	case "quadhold":
		return QuadHold{Quad: td.Voice, Level: v}, nil
	case "env":
		return EnvSpeed{Voice: td.Voice, Speed: v}, nil
	case "delaytime":
		return DelayTime{Line: td.Line, Time: v}, nil
	case "delayfeedback":
		return DelayFeedback{Line: td.Line, Amount: v}, nil
	case "delaymix":
		return DelayMix{Line: td.Line, Amount: v}, nil
	case "lfo":
		return LFOFreq{LFO: td.Line, Hz: v}, nil
	case "drive":
		return Drive{Amount: v}, nil
	case "distmix":
		return DistortionMix{Amount: v}, nil
	case "vibrato":
		return Vibrato{Amount: v}, nil
	case "pan":
		return Pan{Voice: td.Voice, Pan: v}, nil
	case "fm":
		return FMSource{Voice: td.Voice, From: int(v)}, nil
	case "sharpness":
		return Sharpness{Voice: td.Voice, Amount: v}, nil
	case "control":
		return Control{Name: td.Name, Value: v}, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownKind, td.Kind)
}

// lineOffsets returns the byte offset at which each line of src starts.
func lineOffsets(src []byte) []int {
	offs := []int{0}
	for i, b := range src {
		if b == '\n' {
			offs = append(offs, i+1)
		}
	}
	return offs
}

// nodeLocation is the byte span of a scalar in src, quotes included.
// yaml.v3 counts columns in characters, so the line is walked rune by rune.
func nodeLocation(node *yaml.Node, src []byte, lines []int) Location {
	if node.Line < 1 || node.Line > len(lines) {
		return Location{}
	}
	start := lines[node.Line-1]
	for col := 1; col < node.Column && start < len(src); col++ {
		_, size := utf8.DecodeRune(src[start:])
		start += size
	}
	return Location{Start: start, End: scalarEnd(src, start, node)}
}

// scalarEnd finds where the scalar starting at start ends in the source.
// Quoted scalars are scanned for their closing quote.
func scalarEnd(src []byte, start int, node *yaml.Node) int {
	switch {
	case node.Style&yaml.DoubleQuotedStyle != 0:
		for i := start + 1; i < len(src); i++ {
			switch src[i] {
			case '\\':
				i++
			case '"':
				return i + 1
			}
		}
	case node.Style&yaml.SingleQuotedStyle != 0:
		for i := start + 1; i < len(src); i++ {
			if src[i] != '\'' {
				continue
			}
			if i+1 < len(src) && src[i+1] == '\'' {
				i++
				continue
			}
			return i + 1
		}
	default:
		return min(start+len(node.Value), len(src))
	}
	return len(src)
}
