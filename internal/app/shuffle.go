package app

import "math/rand"

// ShuffleAnswers merges the correct answer and the incorrect ones into a
// single option list in uniformly random order (Fisher-Yates). It is called
// once per question when an attempt starts; the order is never changed
// afterwards, so re-reads and answer selection see a stable list.
func ShuffleAnswers(rnd *rand.Rand, correct string, incorrect []string) []string {
	all := make([]string, 0, len(incorrect)+1)
	all = append(all, correct)
	all = append(all, incorrect...)
	for i := len(all) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		all[i], all[j] = all[j], all[i]
	}
	return all
}
