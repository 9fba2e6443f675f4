package classify

import "testing"

func TestQuestion_Categories(t *testing.T) {
	tests := []struct {
		input string
		want  Category
	}{
		{"What does the Pro plan cost?", Pricing},
		{"price list please", Pricing},
		{"how do I get started", Setup},
		{"setup instructions", Setup},
		{"install on linux", Setup},
		{"I keep hitting an error", Troubleshooting},
		{"can you fix this", Troubleshooting},
		{"found a bug in the dashboard", Troubleshooting},
		{"give me the api reference", Integration},
		{"integrate with slack", Integration},
		{"connect my CRM", Integration},
		{"what feature set do you have", Features},
		{"on-device capability", Features},
		{"tell me about the weather", General},
		{"", General},
	}

	for _, tt := range tests {
		if got := Question(tt.input); got != tt.want {
			t.Errorf("Question(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

// TestQuestion_FirstMatchWins verifies that category order is fixed: input
// matching several keyword sets routes to the earliest one.
func TestQuestion_FirstMatchWins(t *testing.T) {
	// "cost" (pricing) and "api" (integration) both present; pricing is checked first.
	if got := Question("how much does the api cost"); got != Pricing {
		t.Errorf("Question = %q, want %q", got, Pricing)
	}
	// "how" (setup) beats "error" (troubleshooting).
	if got := Question("how do I see the error log"); got != Setup {
		t.Errorf("Question = %q, want %q", got, Setup)
	}
}

func TestQuestion_CaseInsensitive(t *testing.T) {
	if got := Question("WHAT IS THE PRICE"); got != Pricing {
		t.Errorf("Question = %q, want %q", got, Pricing)
	}
}

// TestQuestion_Deterministic calls Question repeatedly on the same input and
// verifies the result never changes.
func TestQuestion_Deterministic(t *testing.T) {
	const input = "please connect the api and fix the setup cost"
	want := Question(input)
	for i := 0; i < 100; i++ {
		if got := Question(input); got != want {
			t.Fatalf("call %d: Question = %q, want %q", i, got, want)
		}
	}
}

// TestQuestion_EveryCategoryReachable verifies each taxonomy label has at
// least one keyword routing to it.
func TestQuestion_EveryCategoryReachable(t *testing.T) {
	reached := map[Category]bool{General: true}
	for _, ck := range categoryKeywords {
		for _, kw := range ck.keywords {
			reached[Question(kw)] = true
		}
	}
	for _, c := range []Category{Pricing, Setup, Troubleshooting, Integration, Features, General} {
		if !reached[c] {
			t.Errorf("category %q is unreachable", c)
		}
	}
}
