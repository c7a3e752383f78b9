// Package chatbot answers support messages from an ordered rule list.
// Rules are tried in order against the input; the first match wins and its
// captures are substituted into the reply template. The final catch-all
// guarantees a reply for any input.
package chatbot

import "regexp"

type rule struct {
	pattern  *regexp.Regexp
	template string
	// captureMedicine marks rules whose first capture group names a medicine
	// the transcript should reference.
	captureMedicine bool
}

var rules = []rule{
	{pattern: regexp.MustCompile(`(?i)hello`), template: "Hello! How are you feeling today?"},
	{pattern: regexp.MustCompile(`(?i)I need (.*)`), template: "Why do you need $1?"},
	{pattern: regexp.MustCompile(`(?i)I am (.*)`), template: "How long have you been $1?"},
	{pattern: regexp.MustCompile(`(?i)I can't (.*)`), template: "What makes you think you can't $1?"},
	{pattern: regexp.MustCompile(`(?i)I feel (.*)`), template: "Tell me more about feeling $1."},
	{pattern: regexp.MustCompile(`(?i)Why (.*)`), template: "Why do you think $1?"},
	{pattern: regexp.MustCompile(`(?i)Because (.*)`), template: "Is that the real reason?"},
	{pattern: regexp.MustCompile(`(?i)Yes`), template: "I see. Can you elaborate on that?"},
	{pattern: regexp.MustCompile(`(?i)No`), template: "Why not?"},
	{pattern: regexp.MustCompile(`(?i)you`), template: "We should be discussing you, not me."},
	{pattern: regexp.MustCompile(`(?i)order medicine`), template: "What medicine would you like to order?"},
	{pattern: regexp.MustCompile(`(?i)prescription`), template: "Please upload your prescription so we can process your order."},
	{pattern: regexp.MustCompile(`(?i)delivery time`), template: "When would you like your medicine delivered? We offer same-day delivery in select areas."},
	{pattern: regexp.MustCompile(`(?i)contactless delivery`), template: "Yes, we offer contactless delivery. Would you like to opt for that?"},
	{pattern: regexp.MustCompile(`(?i)refill (.*)`), template: "Would you like to refill your $1 prescription? Please provide the details.", captureMedicine: true},
	{pattern: regexp.MustCompile(`(?i)urgent`), template: "For urgent orders, we recommend using our express delivery option."},
	{pattern: regexp.MustCompile(`(?i)medicine (.*)`), template: "We have $1 available. Would you like to add it to your cart?", captureMedicine: true},
	{pattern: regexp.MustCompile(`(?i)pharmacist`), template: "Our pharmacists are available for consultation. Would you like to speak with one?"},
	{pattern: regexp.MustCompile(`(?i)track order`), template: "You can track your order using the tracking number sent to your email."},
	{pattern: regexp.MustCompile(`(?i)(.*)`), template: "Can you please provide more details? I'm here to help with your medicine delivery."},
}

// Respond evaluates the rules against the input. It also returns the
// medicine names captured by medicine-referencing rules, for the transcript.
func Respond(input string) (reply string, medicines []string) {
	for _, r := range rules {
		m := r.pattern.FindStringSubmatchIndex(input)
		if m == nil {
			continue
		}
		reply = string(r.pattern.ExpandString(nil, r.template, input, m))
		if r.captureMedicine && len(m) >= 4 && m[2] >= 0 {
			medicines = append(medicines, input[m[2]:m[3]])
		}
		return reply, medicines
	}
	// Unreachable: the catch-all matches everything.
	return "", nil
}
