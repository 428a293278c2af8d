package conversation

// One exchange = one user message plus the agent/system messages that follow
// it, up to (but not including) the next user message. Exchange boundaries
// are the positions of user-role messages.

// CountExchanges returns the number of completed or in-progress exchanges,
// which is exactly the number of user-role messages.
func CountExchanges(msgs []Message) int {
	n := 0
	for _, m := range msgs {
		if m.Role == RoleUser {
			n++
		}
	}
	return n
}

// userIndexes returns the positions of user-role messages, in order.
func userIndexes(msgs []Message) []int {
	var idx []int
	for i, m := range msgs {
		if m.Role == RoleUser {
			idx = append(idx, i)
		}
	}
	return idx
}

// PartitionHistory splits msgs at the exchange boundary that keeps the last
// numExchanges exchanges verbatim. Everything strictly before that boundary
// is the partition to summarize. Concatenating the two partitions always
// reconstructs msgs exactly.
//
// When the sequence holds numExchanges or fewer exchanges there is nothing
// old enough to compact: toSummarize is nil and toKeep is the full sequence.
func PartitionHistory(msgs []Message, numExchanges int) (toSummarize, toKeep []Message) {
	idx := userIndexes(msgs)
	if len(idx) <= numExchanges {
		return nil, msgs
	}
	cut := idx[len(idx)-numExchanges]
	return msgs[:cut], msgs[cut:]
}

// ShouldSummarize reports whether the transcript has outgrown either bound:
// strictly more than maxExchanges exchanges, or an estimated token cost
// strictly above maxTokens. Either condition alone fires.
func ShouldSummarize(msgs []Message, est *TokenEstimator, maxExchanges, maxTokens int) bool {
	if CountExchanges(msgs) > maxExchanges {
		return true
	}
	return est.EstimateMessages(msgs) > maxTokens
}
