package live

import (
	"github.com/samber/lo"

	"github.com/gokatarajesh/livequiz/internal/quiz"
	ws "github.com/gokatarajesh/livequiz/pkg/http/ws"
)

// Projections from session types to wire payloads. The participant view of a
// question never carries the correct answer.

func questionPayload(q quiz.Question) ws.QuestionPayload {
	return ws.QuestionPayload{
		ID:        q.ID.String(),
		Question:  q.Text,
		Options:   q.Options[:],
		CreatedAt: q.CreatedAt,
	}
}

func adminQuestionPayload(q quiz.Question) ws.AdminQuestionPayload {
	return ws.AdminQuestionPayload{
		QuestionPayload: questionPayload(q),
		CorrectAnswer:   q.CorrectAnswer,
	}
}

func statisticsPayload(s quiz.Statistics) ws.StatisticsPayload {
	return ws.StatisticsPayload{
		TotalUsers:       s.TotalParticipants,
		TotalAnswers:     s.TotalAnswers,
		CorrectAnswers:   s.CorrectCount,
		IncorrectAnswers: s.IncorrectCount,
	}
}

func userPayload(p quiz.Participant) ws.UserPayload {
	return ws.UserPayload{
		ID:       p.ID.String(),
		Name:     p.Name,
		JoinedAt: p.JoinedAt,
	}
}

func answerPayload(a quiz.Answer) ws.AnswerPayload {
	return ws.AnswerPayload{
		UserID:         a.ParticipantID.String(),
		UserName:       a.ParticipantName,
		QuestionID:     a.QuestionID.String(),
		SelectedOption: a.SelectedOption,
		IsCorrect:      a.IsCorrect,
		SubmittedAt:    a.SubmittedAt,
	}
}

func revealPayload(r quiz.RevealResult) ws.AnswerRevealedPayload {
	return ws.AnswerRevealedPayload{
		QuestionID:    r.QuestionID.String(),
		CorrectAnswer: r.CorrectAnswer,
		UserAnswers: lo.Map(r.Answers, func(a quiz.Answer, _ int) ws.AnswerPayload {
			return answerPayload(a)
		}),
		Statistics: statisticsPayload(r.Statistics),
	}
}

func adminStatusPayload(snap quiz.Snapshot) ws.AdminStatusPayload {
	status := ws.AdminStatusPayload{
		Revealed:       snap.State == quiz.StateRevealed,
		Statistics:     statisticsPayload(snap.Statistics),
		ConnectedUsers: snap.ParticipantCount,
	}
	if snap.Question != nil {
		q := questionPayload(*snap.Question)
		status.CurrentQuestion = &q
	}
	return status
}
