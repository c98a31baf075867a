package models

// AnswerValidation is the per-answer verdict included in round results.
type AnswerValidation struct {
	Valid  bool   `json:"validada_ia"`
	Reason string `json:"razon_ia"`
}

// RoundResults is the scoring payload computed once per round. It is stored on
// the room as last_results and replayed to late or reconnecting clients until
// the next round starts.
type RoundResults struct {
	Code            string                                 `json:"codigo"`
	Round           int                                    `json:"ronda"`
	Answers         map[string]map[string]string           `json:"respuestas"`
	Validations     map[string]map[string]AnswerValidation `json:"validaciones_ia"`
	PointsPerAnswer map[string]map[string]int              `json:"puntos_por_respuesta"`
	RoundScores     map[string]int                         `json:"scores_ronda"`
	TotalScores     map[string]int                         `json:"scores_total"`
	Host            string                                 `json:"anfitrion"`
	GameMode        string                                 `json:"modo_juego"`
	GameOver        bool                                   `json:"fin_del_juego"`
}
