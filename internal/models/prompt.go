package models

// Relationship types supported by the prompt catalog
const (
	RelationshipPartner   = "partner"
	RelationshipFamily    = "family"
	RelationshipFriend    = "friend"
	RelationshipColleague = "colleague"
)

// Prompt is one reflection question presented to both parties. The catalog is
// fixed per relationship type; answering every prompt in the set is what makes
// a party "ready".
type Prompt struct {
	ID               string `json:"id"`
	RelationshipType string `json:"relationship_type"`
	Text             string `json:"text"`
	Position         int    `json:"position"`
}

// ValidRelationshipType reports whether rt is a supported relationship type
func ValidRelationshipType(rt string) bool {
	switch rt {
	case RelationshipPartner, RelationshipFamily, RelationshipFriend, RelationshipColleague:
		return true
	}
	return false
}

var promptCatalog = map[string][]Prompt{
	RelationshipPartner: {
		{ID: "partner-1", RelationshipType: RelationshipPartner, Text: "What happened, from your point of view?", Position: 1},
		{ID: "partner-2", RelationshipType: RelationshipPartner, Text: "What did you feel in the moment, and what do you feel now?", Position: 2},
		{ID: "partner-3", RelationshipType: RelationshipPartner, Text: "What do you need from your partner to move forward?", Position: 3},
	},
	RelationshipFamily: {
		{ID: "family-1", RelationshipType: RelationshipFamily, Text: "What happened, from your point of view?", Position: 1},
		{ID: "family-2", RelationshipType: RelationshipFamily, Text: "What family history might be shaping how this feels?", Position: 2},
		{ID: "family-3", RelationshipType: RelationshipFamily, Text: "What would a good outcome look like for both of you?", Position: 3},
	},
	RelationshipFriend: {
		{ID: "friend-1", RelationshipType: RelationshipFriend, Text: "What happened, from your point of view?", Position: 1},
		{ID: "friend-2", RelationshipType: RelationshipFriend, Text: "What do you value most about this friendship?", Position: 2},
		{ID: "friend-3", RelationshipType: RelationshipFriend, Text: "What would you like to be different going forward?", Position: 3},
	},
	RelationshipColleague: {
		{ID: "colleague-1", RelationshipType: RelationshipColleague, Text: "What happened, from your point of view?", Position: 1},
		{ID: "colleague-2", RelationshipType: RelationshipColleague, Text: "How is this affecting your ability to work together?", Position: 2},
		{ID: "colleague-3", RelationshipType: RelationshipColleague, Text: "What working agreement would help?", Position: 3},
	},
}

// PromptsFor returns the ordered prompt set for a relationship type, or nil
// for an unknown type.
func PromptsFor(relationshipType string) []Prompt {
	return promptCatalog[relationshipType]
}

// RequiredPromptIDs returns the IDs a party must answer before confirming
// readiness.
func RequiredPromptIDs(relationshipType string) []string {
	prompts := PromptsFor(relationshipType)
	ids := make([]string, 0, len(prompts))
	for _, p := range prompts {
		ids = append(ids, p.ID)
	}
	return ids
}
