package service

import (
	"sort"

	"watch_what/internal/models"
)

// 淘汰規則的純函式。不讀寫任何狀態，給定同樣的輸入永遠回傳同樣的結果，
// 由 SessionService 在回合推進時呼叫。

// TallyVotes 統計一個回合中每部電影的得票數。
// 每一部傳入的電影都會出現在結果中，沒有得票的補 0。
func TallyVotes(movies []models.Movie, votes []models.Vote) map[uint]int {
	tally := make(map[uint]int, len(movies))
	for _, movie := range movies {
		tally[movie.ID] = 0
	}
	for _, vote := range votes {
		if _, ok := tally[vote.MovieID]; ok {
			tally[vote.MovieID]++
		}
	}
	return tally
}

// DecideElimination 回傳得票數最低的電影集合（遞增排序）。
// 多部電影同為最低票時全部淘汰；全部電影同票時也一樣全部淘汰，
// 呼叫端必須自行檢查淘汰後的存活數，因為這種情況會清空整個場次。
func DecideElimination(tally map[uint]int) []uint {
	if len(tally) == 0 {
		return nil
	}

	minVotes := -1
	for _, count := range tally {
		if minVotes < 0 || count < minVotes {
			minVotes = count
		}
	}

	var eliminated []uint
	for movieID, count := range tally {
		if count == minVotes {
			eliminated = append(eliminated, movieID)
		}
	}
	sort.Slice(eliminated, func(i, j int) bool { return eliminated[i] < eliminated[j] })
	return eliminated
}

// IsGameOver 判斷淘汰後是否結束：剩下至多一部電影即結束。
// 剩一部時該電影為贏家，剩零部屬於全數同票的退化情況，沒有贏家。
func IsGameOver(activeCount int) bool {
	return activeCount <= 1
}
