package models

// OverallStats are the headline numbers of the dashboard.
type OverallStats struct {
	TotalQuestions  int     `json:"total_questions"`
	TotalCorrect    int     `json:"total_correct"`
	OverallAccuracy float64 `json:"overall_accuracy"`
}

// AnalysisSummary is the precomputed payload behind the analysis dashboard.
// Matrix rows are the correct label and columns the selected label, both in
// Emotions order.
type AnalysisSummary struct {
	OverallStats        OverallStats       `json:"overall_stats"`
	DataPoints          int                `json:"data_points"`
	Emotions            []string           `json:"emotions"`
	Matrix              [][]int            `json:"matrix"`
	BaseVector          []float64          `json:"base_vector"`
	UserDirectionVector []float64          `json:"user_direction_vector"`
	Accuracies          map[string]float64 `json:"accuracies"`
	Totals              map[string]int     `json:"totals"`
	Corrects            map[string]int     `json:"corrects"`
}

type FeedbackStat struct {
	Correct int `json:"correct"`
	Wrong   int `json:"wrong"`
}

// Feedback is the payload of the progress summary view.
type Feedback struct {
	Feedback        string                  `json:"feedback"`
	Stats           map[string]FeedbackStat `json:"stats"`
	OverallAccuracy float64                 `json:"overall_accuracy"`
	TotalQuestions  int                     `json:"total_questions"`
}
