package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Answer is the generated response for one question (or one full-report
// analysis). Lives in the session; optionally persisted to history.
type Answer struct {
	Question   string    `json:"question,omitempty"`
	Text       string    `json:"text"`
	KeyFigures []string  `json:"key_figures,omitempty"`
	Model      string    `json:"model"`
	CreatedAt  time.Time `json:"created_at"`
}

// Evaluation holds best-effort quality scores for a generated answer.
// Both values are in [0,1]; they are estimates, not ground truth.
type Evaluation struct {
	Faithfulness    float64 `json:"faithfulness"`
	AnswerRelevancy float64 `json:"answer_relevancy"`
	Strategy        string  `json:"strategy"`
}

// AnalysisRecord is the history document stored in Mongo when a history
// store is configured.
type AnalysisRecord struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID  string             `bson:"session_id" json:"session_id"`
	Kind       string             `bson:"kind" json:"kind"` // "ask" or "full"
	SourceID   string             `bson:"source_id" json:"source_id"`
	Question   string             `bson:"question,omitempty" json:"question,omitempty"`
	Answer     string             `bson:"answer" json:"answer"`
	KeyFigures []string           `bson:"key_figures,omitempty" json:"key_figures,omitempty"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}
