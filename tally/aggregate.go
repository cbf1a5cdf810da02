// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"math"
	"strconv"
	"time"

	"github.com/danielhkuo/pollcast/models"
)

// Aggregate computes results for every question of poll from the raw
// responses. Questions keep their poll order; responses for questions that
// are not part of the poll are skipped. Aggregate never fails: malformed
// payloads are left out of the option counts.
//
// Inputs are not modified and no state is kept between calls.
func Aggregate(poll models.Poll, responses []models.Response) models.PollResult {
	byQuestion := make(map[string][]models.Response, len(poll.Questions))
	for _, r := range responses {
		byQuestion[r.QuestionID] = append(byQuestion[r.QuestionID], r)
	}

	results := make([]models.QuestionResult, 0, len(poll.Questions))
	for i, q := range poll.Questions {
		results = append(results, AggregateQuestion(q, i, byQuestion[q.ID]))
	}

	return models.PollResult{
		PollID:           poll.ID,
		QuestionResults:  results,
		TotalRespondents: CountRespondents(responses),
	}
}

// AggregateQuestion folds the responses matched to q into a QuestionResult.
// questionIndex is q's position in the poll and only affects fallback colors.
func AggregateQuestion(q models.Question, questionIndex int, responses []models.Response) models.QuestionResult {
	answers := make([]Answer, 0, len(responses))
	for _, r := range responses {
		if a, ok := DecodeAnswer(q, r.ResponseData); ok {
			answers = append(answers, a)
		}
	}

	result := models.QuestionResult{
		QuestionID:    q.ID,
		QuestionText:  q.Text,
		Type:          q.Type,
		OptionResults: []models.OptionResult{},
		TotalVotes:    len(responses),
		TextResponses: []string{},
	}

	switch q.Type {
	case models.TypeSingleChoice:
		aggregateSingleChoice(&result, q, questionIndex, answers)
	case models.TypeMultipleChoice:
		aggregateMultipleChoice(&result, q, questionIndex, answers)
	case models.TypeRating:
		aggregateRating(&result, q, questionIndex, answers)
	case models.TypeNPS:
		aggregateNPS(&result, answers)
	case models.TypeRanking:
		aggregateRanking(&result, q, questionIndex, answers)
	case models.TypeOpenText:
		aggregateOpenText(&result, answers)
	}

	return result
}

// CountRespondents counts distinct respondents across responses.
func CountRespondents(responses []models.Response) int {
	seen := make(map[string]struct{})
	for _, r := range responses {
		seen[RespondentKey(r)] = struct{}{}
	}
	return len(seen)
}

// RespondentKey identifies the respondent behind r. Anonymous responses are
// keyed by their submission timestamp, so one anonymous submission counts
// once as long as all of its rows share a timestamp.
func RespondentKey(r models.Response) string {
	if r.IsAnonymous {
		return FormatTimestamp(r.SubmittedAt)
	}
	return r.Voter
}

// FormatTimestamp renders t the way response timestamps are stored.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// optionIndex maps option ids to their position, keeping the first
// occurrence of a duplicated id
func optionIndex(options []models.Option) map[string]int {
	idx := make(map[string]int, len(options))
	for i, opt := range options {
		if _, dup := idx[opt.ID]; !dup {
			idx[opt.ID] = i
		}
	}
	return idx
}

// choiceResults builds one OptionResult per option against base
func choiceResults(q models.Question, questionIndex int, counts []int, base int) []models.OptionResult {
	if base < 1 {
		base = 1
	}
	out := make([]models.OptionResult, len(q.Options))
	for i, opt := range q.Options {
		out[i] = models.OptionResult{
			OptionID:   opt.ID,
			Text:       opt.Text,
			Count:      counts[i],
			Percentage: percent(counts[i], base),
			Color:      optionColor(opt.Color, questionIndex, i),
		}
	}
	return out
}

func aggregateSingleChoice(result *models.QuestionResult, q models.Question, questionIndex int, answers []Answer) {
	idx := optionIndex(q.Options)
	counts := make([]int, len(q.Options))

	for _, a := range answers {
		sc, ok := a.(SingleChoiceAnswer)
		if !ok {
			continue
		}
		if i, known := idx[sc.OptionID]; known {
			counts[i]++
		}
	}

	// Unknown ids still count toward the base
	result.OptionResults = choiceResults(q, questionIndex, counts, result.TotalVotes)
}

func aggregateMultipleChoice(result *models.QuestionResult, q models.Question, questionIndex int, answers []Answer) {
	idx := optionIndex(q.Options)
	counts := make([]int, len(q.Options))
	selections := 0

	for _, a := range answers {
		mc, ok := a.(MultipleChoiceAnswer)
		if !ok {
			continue
		}
		for _, id := range mc.OptionIDs {
			if i, known := idx[id]; known {
				counts[i]++
				selections++
			}
		}
	}

	// Share of selections, not share of respondents
	result.OptionResults = choiceResults(q, questionIndex, counts, selections)
}

func aggregateRating(result *models.QuestionResult, q models.Question, questionIndex int, answers []Answer) {
	ratingMax := RatingMax(q)
	counts := make([]int, ratingMax)
	sum, valid := 0, 0

	for _, a := range answers {
		ra, ok := a.(RatingAnswer)
		if !ok {
			continue
		}
		counts[ra.Value-1]++
		sum += ra.Value
		valid++
	}

	base := result.TotalVotes
	if base < 1 {
		base = 1
	}

	out := make([]models.OptionResult, ratingMax)
	for i := range out {
		label := strconv.Itoa(i + 1)
		out[i] = models.OptionResult{
			OptionID:   label,
			Text:       label,
			Count:      counts[i],
			Percentage: percent(counts[i], base),
			Color:      optionColor("", questionIndex, i),
		}
	}
	result.OptionResults = out

	if valid > 0 {
		avg := float64(sum) / float64(valid)
		result.AverageScore = &avg
	}
}

func aggregateNPS(result *models.QuestionResult, answers []Answer) {
	counts := make([]int, NPSMax-NPSMin+1)
	promoters, detractors := 0, 0

	for _, a := range answers {
		na, ok := a.(NPSAnswer)
		if !ok {
			continue
		}
		counts[na.Score-NPSMin]++
		switch {
		case na.Score >= 9:
			promoters++
		case na.Score <= 6:
			detractors++
		}
	}

	base := result.TotalVotes
	if base < 1 {
		base = 1
	}

	out := make([]models.OptionResult, len(counts))
	for i := range out {
		score := i + NPSMin
		label := strconv.Itoa(score)
		out[i] = models.OptionResult{
			OptionID:   label,
			Text:       label,
			Count:      counts[i],
			Percentage: percent(counts[i], base),
			Color:      npsColor(score),
		}
	}
	result.OptionResults = out

	if result.TotalVotes > 0 {
		nps := int(roundHalfUp(float64(promoters-detractors) / float64(result.TotalVotes) * 100))
		result.NPSScore = &nps
	}
}

func aggregateRanking(result *models.QuestionResult, q models.Question, questionIndex int, answers []Answer) {
	idx := optionIndex(q.Options)
	rankSums := make([]int, len(q.Options))
	counts := make([]int, len(q.Options))

	for _, a := range answers {
		ra, ok := a.(RankingAnswer)
		if !ok {
			continue
		}
		// An option counts once per response, at its first position.
		ranked := make(map[int]bool, len(ra.OptionIDs))
		for pos, id := range ra.OptionIDs {
			if i, known := idx[id]; known && !ranked[i] {
				ranked[i] = true
				rankSums[i] += pos + 1
				counts[i]++
			}
		}
	}

	n := float64(len(q.Options))
	out := make([]models.OptionResult, len(q.Options))
	for i, opt := range q.Options {
		// Never-ranked options get 0, the worst display score
		avgRank := 0.0
		if counts[i] > 0 {
			avgRank = float64(rankSums[i]) / float64(counts[i])
		}
		pct := 0.0
		if avgRank > 0 {
			pct = (n - avgRank + 1) / n * 100
		}
		out[i] = models.OptionResult{
			OptionID:    opt.ID,
			Text:        opt.Text,
			Count:       counts[i],
			Percentage:  pct,
			Color:       optionColor(opt.Color, questionIndex, i),
			AverageRank: avgRank,
		}
	}
	result.OptionResults = out
}

func aggregateOpenText(result *models.QuestionResult, answers []Answer) {
	for _, a := range answers {
		if ta, ok := a.(TextAnswer); ok {
			result.TextResponses = append(result.TextResponses, ta.Text)
		}
	}
}

// percent returns count/base as a percentage; base must be positive
func percent(count, base int) float64 {
	return float64(count) / float64(base) * 100
}

// roundHalfUp rounds to the nearest integer with halves going toward +Inf
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}
