package ai

import (
	"fmt"
	"strings"

	"github.com/chikara-ai/backend/internal/model/persona"
)

// moodHumorRule is appended to every persona prompt.
const moodHumorRule = "Add mood-based humour: 'happy' for light jokes, 'sad' for encouragement, 'neutral' for normal advice."

// PromptTemplate defines the structure for persona prompts
type PromptTemplate struct {
	SystemPrompt     string
	PersonalityHints []string
	ContextRules     []string
}

// PersonaPromptManager manages prompt templates for different personas
type PersonaPromptManager struct {
	templates map[string]*PromptTemplate
}

// NewPersonaPromptManager creates a new prompt manager with default templates
func NewPersonaPromptManager() *PersonaPromptManager {
	manager := &PersonaPromptManager{
		templates: make(map[string]*PromptTemplate),
	}

	manager.loadDefaultTemplates()
	return manager
}

// GetPromptTemplate returns the prompt template for a given persona
func (pm *PersonaPromptManager) GetPromptTemplate(personaID string) (*PromptTemplate, error) {
	template, exists := pm.templates[personaID]
	if !exists {
		return nil, fmt.Errorf("prompt template not found for persona: %s", personaID)
	}
	return template, nil
}

// BuildSystemPrompt creates a comprehensive system prompt for the persona
func (pm *PersonaPromptManager) BuildSystemPrompt(p *persona.Persona) string {
	template, err := pm.GetPromptTemplate(p.ID)
	if err != nil {
		return pm.buildBasicSystemPrompt(p)
	}

	return fmt.Sprintf(`%s

Persona:
- Name: %s
- Title: %s
- Tone: %s

Personality hints:
- %s

Conversation rules:
- %s
- %s%s

Opening line for reference: %s`,
		template.SystemPrompt,
		p.Name,
		p.Title,
		p.Tone,
		strings.Join(template.PersonalityHints, "\n- "),
		strings.Join(template.ContextRules, "\n- "),
		moodHumorRule,
		boundaryRule(p),
		p.OpeningLine,
	)
}

// boundaryRule renders the persona's hard limits, or nothing when it has none.
func boundaryRule(p *persona.Persona) string {
	if len(p.Boundaries) == 0 {
		return ""
	}
	return "\nNever cross these limits: " + strings.Join(p.Boundaries, "; ") + "."
}

// buildBasicSystemPrompt creates a basic system prompt when no template is available
func (pm *PersonaPromptManager) buildBasicSystemPrompt(p *persona.Persona) string {
	return fmt.Sprintf(`You are %s, %s.

Persona:
- Name: %s
- Tone: %s
- Hint: %s

Stay in character and answer in the style of %s. Auto-detect language (Hindi/English) and reply accordingly.
%s%s

Opening line: %s`,
		p.Name,
		p.Title,
		p.Name,
		p.Tone,
		p.PromptHint,
		p.Name,
		moodHumorRule,
		boundaryRule(p),
		p.OpeningLine,
	)
}

// loadDefaultTemplates loads the default prompt templates for built-in personas
func (pm *PersonaPromptManager) loadDefaultTemplates() {
	pm.templates["dr-chikara"] = &PromptTemplate{
		SystemPrompt: "You are Dr. Chikara, a humorous yet supportive AI doctor. The user is a B.Pharma student from India. " +
			"Always be warm, funny, and helpful. Assist with medical queries, studies, and daily health. " +
			"Auto-detect language (Hindi/English) and reply accordingly.",
		PersonalityHints: []string{
			"Keep replies short enough to be read aloud",
			"Use everyday examples from student life in India",
			"Be honest when something is outside general wellness advice",
		},
		ContextRules: []string{
			"Never give a diagnosis or prescribe a dose; suggest a real doctor for anything serious",
			"Point to emergency services when symptoms sound urgent",
			"When the user shares a prescription or notes, summarise them plainly",
		},
	}

	pm.templates["pharma-tutor"] = &PromptTemplate{
		SystemPrompt: "You are Pharma Tutor, an upbeat study buddy for pharmacy students revising pharmacology. " +
			"Explain drug classes, mechanisms, uses and side effects clearly. Auto-detect language (Hindi/English) and reply accordingly.",
		PersonalityHints: []string{
			"Use mnemonics and short lists",
			"Celebrate small wins and keep stressed students going",
		},
		ContextRules: []string{
			"Teach concepts; do not give treatment advice for real patients",
			"End longer explanations with one quick self-check question",
		},
	}
}
