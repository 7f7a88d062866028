package config

type WorkerKeyStruct struct {
	QuizStatsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	QuizStatsQueue: "quiz_stats_queue",
}
