package usecase

import (
	"math/rand/v2"
	"strings"
)

// DefaultTemplates are the marketing messages appended to every user.
// {name} is replaced with the user's name.
var DefaultTemplates = []string{
	"{name}, invest today to secure your financial future!",
	"Hi {name}, your money can work for you. Start investing!",
	"{name}, we have the best investment options for you.",
	"Don't leave your money idle, {name}. Invest wisely!",
	"{name}, your financial future starts with a decision today.",
}

// MessageGenerator picks a template at random and fills in the name.
type MessageGenerator struct {
	templates []string
	rnd       *rand.Rand
}

// NewMessageGenerator uses DefaultTemplates when templates is empty and a
// randomly seeded source when rnd is nil.
func NewMessageGenerator(rnd *rand.Rand, templates ...string) *MessageGenerator {
	if len(templates) == 0 {
		templates = DefaultTemplates
	}
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &MessageGenerator{templates: templates, rnd: rnd}
}

func (g *MessageGenerator) Generate(name string) string {
	tmpl := g.templates[g.rnd.IntN(len(g.templates))]
	return strings.ReplaceAll(tmpl, "{name}", name)
}
