package classifier

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/iamwavecut/ngmod/resources"
)

const embeddedPolicies = "policies.yml"

// Policies holds the keyword lists of the non-toxicity checks.
type Policies struct {
	BannedLinkPatterns []string `yaml:"banned_link_patterns"`
	ScamTokens         []string `yaml:"scam_tokens"`
	BadWords           []string `yaml:"bad_words"`
}

// LoadPolicies reads policies from path, or the embedded defaults when path is empty.
func LoadPolicies(path string) (*Policies, error) {
	var (
		content []byte
		err     error
	)
	if path == "" {
		content, err = resources.FS.ReadFile(embeddedPolicies)
	} else {
		content, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read policies: %w", err)
	}
	p := &Policies{}
	if err := yaml.UnmarshalStrict(content, p); err != nil {
		return nil, fmt.Errorf("parse policies: %w", err)
	}
	return p, nil
}

type compiledPolicies struct {
	bannedLinks []*regexp.Regexp
	scamTokens  []string
	badWords    []string
}

func (p *Policies) compile() (*compiledPolicies, error) {
	c := &compiledPolicies{}
	for _, pattern := range p.BannedLinkPatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("banned link pattern %q: %w", pattern, err)
		}
		c.bannedLinks = append(c.bannedLinks, re)
	}
	c.scamTokens = lowerAll(p.ScamTokens)
	c.badWords = lowerAll(p.BadWords)
	return c, nil
}

func lowerAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.ToLower(strings.TrimSpace(item)); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (c *compiledPolicies) matchBannedLink(lower string) (string, bool) {
	for _, re := range c.bannedLinks {
		if re.MatchString(lower) {
			return re.String(), true
		}
	}
	return "", false
}

// containsAny returns the first token found in any of the given renderings of a message.
func containsAny(tokens []string, renderings ...string) (string, bool) {
	for _, token := range tokens {
		for _, r := range renderings {
			if strings.Contains(r, token) {
				return token, true
			}
		}
	}
	return "", false
}
