package statesync

import (
	"errors"
	"testing"
)

func TestDecodeState(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    State
		wantErr bool
	}{
		{"valid", `{"markdown":"# A","currentSlide":2,"themeId":"hacker"}`, State{"# A", 2, "hacker"}, false},
		{"integral float", `{"markdown":"","currentSlide":1.0,"themeId":"paper"}`, State{"", 1, "paper"}, false},
		{"extra keys ignored", `{"markdown":"x","currentSlide":0,"themeId":"paper","v":9}`, State{"x", 0, "paper"}, false},
		{"not json", `nope`, State{}, true},
		{"array", `[1,2]`, State{}, true},
		{"null", `null`, State{}, true},
		{"markdown missing", `{"currentSlide":0,"themeId":"paper"}`, State{}, true},
		{"markdown not string", `{"markdown":5,"currentSlide":0,"themeId":"paper"}`, State{}, true},
		{"markdown null", `{"markdown":null,"currentSlide":0,"themeId":"paper"}`, State{}, true},
		{"negative slide", `{"markdown":"","currentSlide":-1,"themeId":"paper"}`, State{}, true},
		{"fractional slide", `{"markdown":"","currentSlide":1.5,"themeId":"paper"}`, State{}, true},
		{"slide as string", `{"markdown":"","currentSlide":"1","themeId":"paper"}`, State{}, true},
		{"unknown theme", `{"markdown":"","currentSlide":0,"themeId":"neon"}`, State{}, true},
		{"theme not string", `{"markdown":"","currentSlide":0,"themeId":true}`, State{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := DecodeState([]byte(tt.raw))
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedPayload) {
					t.Errorf("DecodeState() error = %v, want ErrMalformedPayload", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeState() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DecodeState() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDecodeMessage(t *testing.T) {
	t.Parallel()

	valid := `{"sourceId":"abc","state":{"markdown":"m","currentSlide":3,"themeId":"solarized"}}`
	msg, err := DecodeMessage([]byte(valid))
	if err != nil {
		t.Fatalf("DecodeMessage() error = %v", err)
	}
	if msg.SourceID != "abc" || msg.State != (State{"m", 3, "solarized"}) {
		t.Errorf("DecodeMessage() = %+v", msg)
	}

	for _, raw := range []string{
		`{"state":{"markdown":"m","currentSlide":3,"themeId":"paper"}}`,
		`{"sourceId":"","state":{"markdown":"m","currentSlide":3,"themeId":"paper"}}`,
		`{"sourceId":7,"state":{"markdown":"m","currentSlide":3,"themeId":"paper"}}`,
		`{"sourceId":"abc"}`,
		`{"sourceId":"abc","state":{"markdown":"m","currentSlide":-3,"themeId":"paper"}}`,
	} {
		if _, err := DecodeMessage([]byte(raw)); !errors.Is(err, ErrMalformedPayload) {
			t.Errorf("DecodeMessage(%s) error = %v, want ErrMalformedPayload", raw, err)
		}
	}
}

func TestEncodeMessage_WireShape(t *testing.T) {
	t.Parallel()

	got, err := EncodeMessage(Message{SourceID: "id", State: State{"# A", 1, "paper"}})
	if err != nil {
		t.Fatalf("EncodeMessage() error = %v", err)
	}
	want := `{"sourceId":"id","state":{"markdown":"# A","currentSlide":1,"themeId":"paper"}}`
	if string(got) != want {
		t.Errorf("EncodeMessage() = %s, want %s", got, want)
	}
}

func TestState_Validate(t *testing.T) {
	t.Parallel()

	if err := DefaultState().Validate(); err != nil {
		t.Errorf("DefaultState().Validate() = %v", err)
	}
	if err := (State{CurrentSlide: -1, ThemeID: "paper"}).Validate(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("negative slide error = %v", err)
	}
	if err := (State{ThemeID: "neon"}).Validate(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("unknown theme error = %v", err)
	}
}
