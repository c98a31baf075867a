package services

import (
	"context"
	"log"
	"strings"
	"time"
	"unicode"

	"github.com/JAntoniox9/basta-web-app/models"
)

// answerPoints is the fixed award for a valid answer.
const answerPoints = 100

// judgeTimeout bounds a single external validation call.
const judgeTimeout = 20 * time.Second

// bannedWords is the block list applied to answers and chat messages after
// stripping non-letters. Substring match, case-insensitive.
var bannedWords = []string{
	"puta", "mierda", "pendejo", "idiota", "estupido", "imbecil",
	"cabrón", "cabron", "culero", "chingada", "fuck", "bitch",
}

// ScoringEngine evaluates every player's answers for a closed round. Rules
// run first; the external judge, when enabled, only sees answers that passed
// them, and any judge failure degrades to accepting the answer.
type ScoringEngine struct {
	judge Judge
}

func NewScoringEngine(judge Judge) *ScoringEngine {
	return &ScoringEngine{judge: judge}
}

// Evaluate scores the round captured in room. Every player known to the room
// is scored for every enabled category, whether or not they submitted
// anything; a missing sheet scores like an all-invalid one.
func (e *ScoringEngine) Evaluate(room *models.Room) *models.RoundResults {
	letter := strings.ToUpper(room.Letter)
	answers := room.RoundAnswers
	if answers == nil {
		answers = map[string]map[string]string{}
	}

	results := &models.RoundResults{
		Code:            room.Code,
		Round:           room.Round,
		Answers:         answers,
		Validations:     map[string]map[string]models.AnswerValidation{},
		PointsPerAnswer: map[string]map[string]int{},
		RoundScores:     map[string]int{},
		Host:            room.Host,
		GameMode:        room.Config.GameMode,
	}

	for _, player := range room.Players {
		validations := map[string]models.AnswerValidation{}
		points := map[string]int{}
		total := 0

		for _, category := range room.Config.Categories {
			answer := strings.TrimSpace(answers[player][category])
			verdict := e.validate(letter, category, answer, room.Config.ValidationEnabled)

			pts := 0
			if verdict.Valid {
				pts = answerPoints
			}
			total += pts

			validations[category] = verdict
			points[category] = pts
		}

		results.Validations[player] = validations
		results.PointsPerAnswer[player] = points
		results.RoundScores[player] = total
	}

	return results
}

func (e *ScoringEngine) validate(letter, category, answer string, external bool) models.AnswerValidation {
	if answer == "" {
		return models.AnswerValidation{Valid: false, Reason: "Respuesta vacía"}
	}
	if containsBannedWord(answer) {
		return models.AnswerValidation{Valid: false, Reason: "Lenguaje inapropiado"}
	}
	if letter != "" && !startsWithLetter(answer, letter) {
		return models.AnswerValidation{Valid: false, Reason: "Debe iniciar con la letra " + letter}
	}

	if !external || e.judge == nil {
		return models.AnswerValidation{Valid: true, Reason: "Válida"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), judgeTimeout)
	defer cancel()
	verdict, err := e.judge.Judge(ctx, letter, category, answer)
	if err != nil {
		// Fail open: a broken judge never blocks scoring.
		log.Printf("Judge unavailable for %q/%q, accepting answer: %v", category, answer, err)
		return models.AnswerValidation{Valid: true, Reason: "Válida (validación básica)"}
	}

	reason := verdict.Reason
	if reason == "" {
		if verdict.Valid {
			reason = "Válida"
		} else {
			reason = "Rechazada por el juez"
		}
	}
	return models.AnswerValidation{Valid: verdict.Valid, Reason: reason}
}

func startsWithLetter(answer, letter string) bool {
	for _, r := range answer {
		return strings.EqualFold(string(r), letter)
	}
	return false
}

// containsBannedWord lowercases the text, strips everything but letters and
// spaces and looks for block-list substrings.
func containsBannedWord(text string) bool {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || r == ' ' {
			b.WriteRune(r)
		}
	}
	normalized := b.String()
	for _, word := range bannedWords {
		if strings.Contains(normalized, word) {
			return true
		}
	}
	return false
}
