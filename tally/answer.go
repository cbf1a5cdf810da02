// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/danielhkuo/pollcast/models"
)

// NPS score bounds
const (
	NPSMin = 0
	NPSMax = 10
)

// Answer is a decoded response payload. The concrete type always matches
// the owning question's type.
type Answer interface {
	answer()
}

type SingleChoiceAnswer struct {
	OptionID string
}

type MultipleChoiceAnswer struct {
	OptionIDs []string
}

type RatingAnswer struct {
	Value int
}

type NPSAnswer struct {
	Score int
}

// RankingAnswer lists option ids best first.
type RankingAnswer struct {
	OptionIDs []string
}

type TextAnswer struct {
	Text string
}

func (SingleChoiceAnswer) answer()   {}
func (MultipleChoiceAnswer) answer() {}
func (RatingAnswer) answer()         {}
func (NPSAnswer) answer()            {}
func (RankingAnswer) answer()        {}
func (TextAnswer) answer()           {}

// DecodeAnswer decodes responseData for question q. It returns false when the
// payload is malformed or out of range; such responses contribute nothing to
// option counts but still count toward the question's total votes.
//
// Option ids are not checked here: unknown ids inside an otherwise valid
// payload are skipped by the aggregators.
func DecodeAnswer(q models.Question, responseData string) (Answer, bool) {
	switch q.Type {
	case models.TypeSingleChoice:
		return SingleChoiceAnswer{OptionID: responseData}, true

	case models.TypeMultipleChoice:
		ids, ok := decodeIDList(responseData)
		if !ok {
			return nil, false
		}
		return MultipleChoiceAnswer{OptionIDs: ids}, true

	case models.TypeRating:
		v, ok := decodeInt(responseData)
		if !ok || v < 1 || v > RatingMax(q) {
			return nil, false
		}
		return RatingAnswer{Value: v}, true

	case models.TypeNPS:
		v, ok := decodeInt(responseData)
		if !ok || v < NPSMin || v > NPSMax {
			return nil, false
		}
		return NPSAnswer{Score: v}, true

	case models.TypeRanking:
		ids, ok := decodeIDList(responseData)
		if !ok {
			return nil, false
		}
		return RankingAnswer{OptionIDs: ids}, true

	case models.TypeOpenText:
		if responseData == "" {
			return nil, false
		}
		return TextAnswer{Text: responseData}, true
	}

	return nil, false
}

// RatingMax returns the question's rating ceiling, defaulting to 5.
func RatingMax(q models.Question) int {
	if q.RatingMax <= 0 {
		return models.DefaultRatingMax
	}
	return q.RatingMax
}

// decodeIDList parses a JSON array of strings
func decodeIDList(data string) ([]string, bool) {
	var ids []string
	if err := json.Unmarshal([]byte(data), &ids); err != nil {
		return nil, false
	}
	// "null" unmarshals into a nil slice without error
	if ids == nil {
		return nil, false
	}
	return ids, true
}

// decodeInt parses a base-10 integer, tolerating surrounding whitespace
func decodeInt(data string) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(data))
	if err != nil {
		return 0, false
	}
	return v, true
}
