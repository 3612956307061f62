package services

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
)

var ErrUnknownDifficulty = errors.New("unknown difficulty type")

const (
	GradeBandK2   = "K-2"
	GradeBand35   = "3-5"
	GradeBand68   = "6-8"
	GradeBandAll  = "All"
	DifficultyBeh = "behavior"
)

var activities = map[string]map[string][]string{
	"reading": {
		GradeBandK2: {
			"Picture book discussion with visual cues",
			"Letter sound matching games",
			"Simple word building with letter tiles",
			"Reading comprehension with picture support",
			"Phonics songs and rhyming activities",
		},
		GradeBand35: {
			"Graphic organizer for story elements",
			"Vocabulary word maps with illustrations",
			"Partner reading with guided questions",
			"Reading response journals with prompts",
			"Text-to-self connection activities",
		},
		GradeBand68: {
			"Literature circles with differentiated roles",
			"Character analysis using graphic organizers",
			"Compare and contrast essays with templates",
			"Research projects with structured guidelines",
			"Reading strategy instruction (summarizing, questioning)",
		},
	},
	"math": {
		GradeBandK2: {
			"Hands-on counting with manipulatives",
			"Visual number line activities",
			"Shape recognition through real-world objects",
			"Simple addition/subtraction with pictures",
			"Math story problems with visual supports",
		},
		GradeBand35: {
			"Fraction circles and visual representations",
			"Word problem solving with step-by-step guides",
			"Math journals for problem-solving strategies",
			"Multiplication games with visual arrays",
			"Real-world math applications (cooking, shopping)",
		},
		GradeBand68: {
			"Algebra tiles for equation solving",
			"Geometric constructions with technology",
			"Data analysis projects with real data",
			"Mathematical modeling activities",
			"Peer tutoring for complex problem solving",
		},
	},
	"writing": {
		GradeBandK2: {
			"Picture prompts for creative writing",
			"Sentence frames for structured writing",
			"Interactive writing with teacher support",
			"Story sequencing activities",
			"Simple poetry with repetitive patterns",
		},
		GradeBand35: {
			"Graphic organizers for essay planning",
			"Peer editing with specific checklists",
			"Multi-step writing process instruction",
			"Genre studies with mentor texts",
			"Writing conferences with guided feedback",
		},
		GradeBand68: {
			"Research paper scaffolding with templates",
			"Argumentative writing with evidence support",
			"Creative writing workshops",
			"Digital storytelling projects",
			"Collaborative writing assignments",
		},
	},
	DifficultyBeh: {
		GradeBandAll: {
			"Positive behavior reinforcement system",
			"Clear classroom expectations with visual reminders",
			"Break cards for self-regulation",
			"Mindfulness and breathing exercises",
			"Social skills practice through role-play",
			"Sensory break activities",
			"Peer mentoring programs",
			"Goal-setting and progress tracking",
			"Conflict resolution strategies",
			"Emotional regulation techniques",
		},
	},
}

// StrategySection is one titled list in a strategy table.
type StrategySection struct {
	Title string   `json:"title"`
	Items []string `json:"items"`
}

type StrategyTable struct {
	Area     string            `json:"area"`
	Sections []StrategySection `json:"sections"`
}

var strategies = []StrategyTable{
	{
		Area: "Reading",
		Sections: []StrategySection{
			{"Phonics and Decoding Support", []string{
				"Use multi-sensory phonics instruction (visual, auditory, kinesthetic)",
				"Implement systematic phonics programs with explicit instruction",
				"Provide word families and pattern recognition activities",
				"Use color-coding for different sound patterns",
			}},
			{"Reading Comprehension Support", []string{
				"Pre-teach vocabulary with visual supports",
				"Use graphic organizers for story elements",
				"Implement guided reading with leveled texts",
				"Provide audio books and text-to-speech technology",
			}},
			{"Assistive Technology", []string{
				"Text-to-speech software",
				"Digital highlighters and annotation tools",
				"Reading apps with built-in supports",
				"Voice recording for reading practice",
			}},
			{"Reading Intervention Checklist", []string{
				"Assess current reading level and specific difficulties",
				"Set realistic, measurable reading goals",
				"Provide daily phonics instruction (15-20 minutes)",
				"Use high-interest, low-level reading materials",
				"Implement peer reading partnerships",
				"Monitor progress weekly with running records",
				"Celebrate small victories and progress",
			}},
		},
	},
	{
		Area: "Mathematics",
		Sections: []StrategySection{
			{"Conceptual Understanding", []string{
				"Use concrete manipulatives before abstract concepts",
				"Implement visual math strategies (number lines, charts)",
				"Break complex problems into smaller steps",
				"Use real-world connections and applications",
			}},
			{"Problem-Solving Support", []string{
				"Provide step-by-step problem-solving templates",
				"Use graphic organizers for word problems",
				"Teach multiple solution strategies",
				"Allow extra processing time",
			}},
			{"Tools and Accommodations", []string{
				"Calculator use for appropriate tasks",
				"Graph paper for organization",
				"Visual fraction models",
				"Math fact reference sheets",
			}},
			{"Number Sense Building", []string{
				"Daily number talks (5-10 minutes)",
				"Skip counting practice",
				"Number pattern recognition",
				"Estimation activities",
			}},
			{"Fact Fluency", []string{
				"Timed practice with progress tracking",
				"Math fact games and apps",
				"Visual multiplication charts",
				"Strategic fact family instruction",
			}},
		},
	},
	{
		Area: "Writing",
		Sections: []StrategySection{
			{"Writing Process Support", []string{
				"Use graphic organizers for planning",
				"Provide sentence and paragraph frames",
				"Implement peer editing with specific guidelines",
				"Allow voice-to-text technology",
			}},
			{"Creative Expression", []string{
				"Offer choice in writing topics and formats",
				"Use visual prompts and story starters",
				"Implement interactive writing activities",
				"Encourage multimedia presentations",
			}},
			{"Mechanics and Conventions", []string{
				"Teach grammar in context",
				"Use editing checklists and rubrics",
				"Provide spelling support tools",
				"Focus on one writing skill at a time",
			}},
		},
	},
	{
		Area: "General",
		Sections: []StrategySection{
			{"Multiple Means of Representation", []string{
				"Present information in various formats (visual, auditory, hands-on)",
				"Use multimedia resources",
				"Provide background knowledge activation",
				"Offer multiple examples and non-examples",
			}},
			{"Multiple Means of Engagement", []string{
				"Offer choices in topics, tools, and learning environment",
				"Connect to student interests and cultural backgrounds",
				"Provide appropriate challenges for all learners",
				"Foster collaboration and community",
			}},
			{"Multiple Means of Expression", []string{
				"Allow various ways to demonstrate knowledge",
				"Provide options for physical action and movement",
				"Support planning and strategy development",
				"Use assistive technologies as needed",
			}},
		},
	},
}

// GradeBand groups a grade level: K, 1 and 2 are K-2; 3, 4 and 5 are 3-5;
// anything else is 6-8. A "Grade " prefix, as the assessment form sends it,
// is ignored.
func GradeBand(grade string) string {
	g := strings.ToUpper(strings.TrimSpace(grade))
	g = strings.TrimSpace(strings.TrimPrefix(g, "GRADE"))
	switch g {
	case "K", "1", "2":
		return GradeBandK2
	case "3", "4", "5":
		return GradeBand35
	default:
		return GradeBand68
	}
}

type Activity struct {
	DifficultyType string `json:"difficulty_type"`
	GradeBand      string `json:"grade_band"`
	Activity       string `json:"activity"`
}

// ResourceService serves teacher resources.
type ResourceService struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewResourceService(seed int64) *ResourceService {
	return &ResourceService{rng: rand.New(rand.NewSource(seed))}
}

// GenerateActivity picks a random activity for a difficulty type and grade.
// Behavior activities ignore the grade.
func (s *ResourceService) GenerateActivity(difficultyType, grade string) (Activity, error) {
	kind := strings.ToLower(strings.TrimSpace(difficultyType))
	bands, ok := activities[kind]
	if !ok {
		return Activity{}, fmt.Errorf("%w: %q", ErrUnknownDifficulty, difficultyType)
	}
	band := GradeBandAll
	if kind != DifficultyBeh {
		band = GradeBand(grade)
	}
	list := bands[band]

	s.mu.Lock()
	pick := list[s.rng.Intn(len(list))]
	s.mu.Unlock()

	return Activity{DifficultyType: kind, GradeBand: band, Activity: pick}, nil
}

// Activities lists every activity for a difficulty type and band.
func Activities(difficultyType, band string) []string {
	return activities[strings.ToLower(difficultyType)][band]
}

// DifficultyTypes lists the supported difficulty types.
func DifficultyTypes() []string {
	return []string{"reading", "math", "writing", DifficultyBeh}
}

func Strategies() []StrategyTable {
	return strategies
}
