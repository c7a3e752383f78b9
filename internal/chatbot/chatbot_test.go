package chatbot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCaptureSubstitution(t *testing.T) {
	reply, _ := Respond("I need paracetamol")
	assert.Equal(t, "Why do you need paracetamol?", reply)

	reply, _ = Respond("I feel dizzy")
	assert.Equal(t, "Tell me more about feeling dizzy.", reply)
}

func TestFirstMatchWins(t *testing.T) {
	// "I need ..." precedes the generic "you" rule in the list, so a message
	// matching both gets the earlier rule's reply.
	reply, _ := Respond("I need you to help")
	assert.Equal(t, "Why do you need you to help?", reply)
}

func TestCaseInsensitive(t *testing.T) {
	reply, _ := Respond("HELLO there")
	assert.Equal(t, "Hello! How are you feeling today?", reply)
}

func TestMedicineCapture(t *testing.T) {
	reply, meds := Respond("medicine aspirin")
	assert.Equal(t, "We have aspirin available. Would you like to add it to your cart?", reply)
	assert.Equal(t, []string{"aspirin"}, meds)

	_, meds = Respond("refill insulin")
	assert.Equal(t, []string{"insulin"}, meds)
}

func TestDomainRules(t *testing.T) {
	cases := map[string]string{
		"how do I track order 42": "You can track your order using the tracking number sent to your email.",
		"is contactless delivery possible": "Yes, we offer contactless delivery. Would you like to opt for that?",
		"this is urgent":                   "For urgent orders, we recommend using our express delivery option.",
	}
	for input, want := range cases {
		reply, _ := Respond(input)
		assert.Equal(t, want, reply, "input %q", input)
	}
}

func TestFallbackAlwaysReplies(t *testing.T) {
	reply, meds := Respond("qwertyuiop")
	assert.Equal(t, "Can you please provide more details? I'm here to help with your medicine delivery.", reply)
	assert.Empty(t, meds)
}
