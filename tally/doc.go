// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package tally turns raw poll responses into per-question results.

# Aggregation

Aggregate is a pure function over a poll definition and its responses:

	result := tally.Aggregate(poll, responses)

Responses are grouped by question id, decoded with DecodeAnswer, and folded by
the aggregator for the question's type. Nothing is cached and inputs are never
modified, so Aggregate is safe to call concurrently.

# Question Types

  - singleChoice: one count per option, percentage of total votes
  - multipleChoice: one count per selected option, percentage of all selections
  - rating: buckets 1..rating_max, average of valid values
  - nps: buckets 0..10, score = round((promoters - detractors) / votes * 100)
  - ranking: average 1-based position per option, mapped to a 0-100 score
  - openText: non-empty answers in submission order

# Malformed Input

A payload that cannot be decoded (bad JSON, out of range number, unknown
option id) contributes to no option. It still counts toward the question's
total votes, which is why rating percentages can sum to less than 100.

# Respondents

Respondents are counted by voter id, or by submission timestamp for
anonymous responses.

# Formatting

FormatPercent, FormatCount, FormatScore and FormatNPS render result values for
exports. PaletteColor supplies fallback option colors.
*/
package tally
