// Package classify assigns a category tag to a product from its name and
// description using an ordered list of keyword rules.
package classify

import "strings"

// DefaultCategory is returned when no rule matches.
const DefaultCategory = "accessory"

// Rule matches lowercased "name description" text and names the category it
// assigns. Rules are evaluated in order and the first match wins.
type Rule struct {
	Name     string
	Category string
	Keywords []string // any of these matches, unless Match is set
	Match    func(text string) bool
}

func (r Rule) matches(text string) bool {
	if r.Match != nil {
		return r.Match(text)
	}
	return containsAny(text, r.Keywords...)
}

// Classifier is a pure function over an immutable rule list.
type Classifier struct {
	rules []Rule
}

// New creates a classifier over rules, or DefaultRules when rules is nil.
func New(rules []Rule) *Classifier {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Classifier{rules: append([]Rule(nil), rules...)}
}

// Classify returns the category of the first matching rule, or DefaultCategory.
func (c *Classifier) Classify(name, description string) string {
	category, _ := c.Explain(name, description)
	return category
}

// Explain is Classify that also reports the name of the deciding rule
// ("default" when nothing matched).
func (c *Classifier) Explain(name, description string) (category, rule string) {
	text := strings.ToLower(name + " " + description)
	for _, r := range c.rules {
		if r.matches(text) {
			return r.Category, r.Name
		}
	}
	return DefaultCategory, "default"
}

// Rules returns a copy of the rule list in evaluation order.
func (c *Classifier) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

// DefaultRules returns the category rules. Specific categories precede the
// general ones they would otherwise lose to, e.g. "laptop stand" is checked
// before the desk/table rule and microphones before stands.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:     "microphone",
			Category: "microphone",
			Match: func(t string) bool {
				return containsAny(t, "microphone", "mic arm") ||
					(containsAny(t, "røde", "rode") && !strings.Contains(t, "caster")) ||
					(strings.Contains(t, "shure") && containsAny(t, "sm", "mv"))
			},
		},
		{Name: "laptop-stand", Category: "laptop-stand", Keywords: []string{"laptop stand", "notebook stand"}},
		{Name: "monitor-stand", Category: "monitor-stand", Keywords: []string{"monitor stand", "monitor arm", "display arm"}},
		{
			Name:     "phone-stand",
			Category: "phone-stand",
			Match: func(t string) bool {
				return containsAny(t, "phone stand", "iphone stand") ||
					(strings.Contains(t, "magsafe") && strings.Contains(t, "stand"))
			},
		},
		{Name: "headphone-stand", Category: "headphone-stand", Keywords: []string{"headphone stand", "headphone hook"}},
		{Name: "speaker-stand", Category: "speaker-stand", Keywords: []string{"speaker stand"}},
		{Name: "mic-arm", Category: "mic-arm", Keywords: []string{"mic arm", "microphone arm", "boom arm"}},
		{
			Name:     "desk",
			Category: "desk",
			Match: func(t string) bool {
				return containsAny(t, "desk", "table") &&
					!containsAny(t, "mat", "shelf", "organizer", "lamp", "pad")
			},
		},
		{Name: "chair", Category: "chair", Keywords: []string{"chair", "aeron", "embody", "leap", "gesture", "secretlab"}},
		{Name: "monitor", Category: "monitor", Keywords: []string{"monitor", "display", "screen", "ultrafine", "studio display"}},
		{Name: "keyboard", Category: "keyboard", Keywords: []string{"keyboard", "keychron", "hhkb", "nuphy", "keycaps"}},
		{Name: "mouse", Category: "mouse", Keywords: []string{"mouse", "trackpad", "magic trackpad", "mx master", "mx anywhere"}},
		{Name: "speakers", Category: "speakers", Keywords: []string{"speaker", "audioengine", "kanto"}},
		{Name: "headphones", Category: "headphones", Keywords: []string{"headphone", "airpods", "earbuds"}},
		{Name: "webcam", Category: "webcam", Keywords: []string{"webcam", "facecam", "brio"}},
		{Name: "streaming", Category: "streaming", Keywords: []string{"stream deck", "prompter", "rodecaster"}},
		{
			Name:     "camera",
			Category: "camera",
			Match: func(t string) bool {
				return strings.Contains(t, "camera") && !strings.Contains(t, "webcam")
			},
		},
		{Name: "lighting", Category: "lighting", Keywords: []string{"light", "lamp", "key light", "ring light", "amaran", "elgato light"}},
		{Name: "dock", Category: "dock", Keywords: []string{"dock", "hub", "thunderbolt", "caldigit", "ts4", "ts3"}},
		{Name: "desk-mat", Category: "desk-mat", Keywords: []string{"desk mat", "desk pad", "mousepad", "mouse pad"}},
		{
			Name:     "desk-shelf",
			Category: "desk-shelf",
			Match: func(t string) bool {
				return strings.Contains(t, "shelf") && strings.Contains(t, "desk")
			},
		},
		{Name: "organization", Category: "organization", Keywords: []string{"organizer", "tray", "drawer", "storage"}},
		{
			Name:     "cable-management",
			Category: "cable-management",
			Match: func(t string) bool {
				return strings.Contains(t, "cable") && containsAny(t, "management", "organizer")
			},
		},
		{Name: "charger", Category: "charger", Keywords: []string{"charger", "charging"}},
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
