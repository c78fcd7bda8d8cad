package service

import (
	"errors"
	"fmt"
	"sync"

	"watch_what/internal/models"
	"watch_what/internal/repository"
	"watch_what/internal/utils"
)

// 產生場次代碼時允許的碰撞重試次數
const maxCodeAttempts = 5

// RoundAdvanceResult 是一次回合推進的完整結果
type RoundAdvanceResult struct {
	OldRound   int                  `json:"old_round"`
	NewRound   int                  `json:"new_round"`
	Eliminated []EliminatedMovie    `json:"eliminated_movies"`
	Winner     *Winner              `json:"winner"`
	VoteCounts []VoteSummary        `json:"vote_counts"`
	Status     models.SessionStatus `json:"status"`
}

// RoundResults 是某一回合的唯讀結果預覽
type RoundResults struct {
	Round            int           `json:"round"`
	Votes            []VoteSummary `json:"votes"`
	EliminatedMovies []uint        `json:"eliminated_movies"`
}

// SessionStatusSummary 是場次進度的摘要
type SessionStatusSummary struct {
	SessionID        uint                 `json:"session_id"`
	Code             string               `json:"code"`
	Status           models.SessionStatus `json:"status"`
	CurrentRound     int                  `json:"current_round"`
	ParticipantCount int                  `json:"participant_count"`
	MovieCount       int                  `json:"movie_count"`
	ActiveMovieCount int                  `json:"active_movie_count"`
	WinnerMovieID    *uint                `json:"winner_movie_id"`
}

// SessionService 擁有場次的狀態機，負責接受投票、推進回合並廣播事件。
// 同一個場次的變更操作一律先取得該場次的鎖再執行，
// 統計票數和寫入淘汰結果之間不會被同場次的其他操作插隊；
// 不同場次之間沒有共用鎖，可以完全平行。
type SessionService struct {
	sessions     repository.SessionRepository
	participants repository.ParticipantRepository
	movies       repository.MovieRepository
	votes        repository.VoteRepository
	wsManager    *WebSocketManager

	locks sync.Map // sessionID -> *sync.Mutex
}

func NewSessionService(repos *repository.Repositories, wsManager *WebSocketManager) *SessionService {
	return &SessionService{
		sessions:     repos.Session,
		participants: repos.Participant,
		movies:       repos.Movie,
		votes:        repos.Vote,
		wsManager:    wsManager,
	}
}

// lockSession 取得場次專屬的鎖，回傳解鎖函式
func (s *SessionService) lockSession(sessionID uint) func() {
	v, _ := s.locks.LoadOrStore(sessionID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// CreateSession 建立一個新場次，狀態為 submission、回合為 1，
// 並配發一組唯一的分享代碼
func (s *SessionService) CreateSession() (*models.Session, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		session := &models.Session{
			Code:         utils.NewSessionCode(),
			Status:       models.StatusSubmission,
			CurrentRound: 1,
		}

		err := s.sessions.Create(session)
		if errors.Is(err, repository.ErrDuplicate) {
			continue // 代碼碰撞，換一組再試
		}
		if err != nil {
			return nil, err
		}
		return session, nil
	}
	return nil, errors.New("無法產生唯一的場次代碼")
}

func (s *SessionService) GetSession(sessionID uint) (*models.Session, error) {
	return s.findSession(sessionID)
}

func (s *SessionService) GetSessionByCode(code string) (*models.Session, error) {
	session, err := s.sessions.FindByCode(code)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w：場次代碼 %s 不存在", ErrNotFound, code)
	}
	return session, err
}

// GetSessionStatus 回報場次目前的進度摘要
func (s *SessionService) GetSessionStatus(sessionID uint) (*SessionStatusSummary, error) {
	session, err := s.findSession(sessionID)
	if err != nil {
		return nil, err
	}

	activeCount := 0
	for _, movie := range session.Movies {
		if movie.Active() {
			activeCount++
		}
	}

	return &SessionStatusSummary{
		SessionID:        session.ID,
		Code:             session.Code,
		Status:           session.Status,
		CurrentRound:     session.CurrentRound,
		ParticipantCount: len(session.Participants),
		MovieCount:       len(session.Movies),
		ActiveMovieCount: activeCount,
		WinnerMovieID:    session.WinnerMovieID,
	}, nil
}

// JoinSession 讓新參與者加入提交階段的場次
func (s *SessionService) JoinSession(sessionID uint, name string) (*models.Participant, error) {
	defer s.lockSession(sessionID)()

	session, err := s.findSession(sessionID)
	if err != nil {
		return nil, err
	}

	if session.Status != models.StatusSubmission {
		return nil, fmt.Errorf("%w：場次已不開放加入", ErrInvalidState)
	}

	participant := &models.Participant{
		SessionID: sessionID,
		Name:      name,
	}
	if err := s.participants.Create(participant); err != nil {
		return nil, err
	}

	s.wsManager.BroadcastToSession(sessionID, NewParticipantJoinedEvent(sessionID, participant))
	return participant, nil
}

// SubmitMovie 在提交階段新增一部候選電影
func (s *SessionService) SubmitMovie(sessionID, participantID uint, title string) (*models.Movie, error) {
	defer s.lockSession(sessionID)()

	session, err := s.findSession(sessionID)
	if err != nil {
		return nil, err
	}

	if session.Status != models.StatusSubmission {
		return nil, fmt.Errorf("%w：場次已不開放提交電影", ErrInvalidState)
	}

	participant, err := s.findParticipant(participantID)
	if err != nil {
		return nil, err
	}
	if participant.SessionID != sessionID {
		return nil, fmt.Errorf("%w：參與者 %d 不屬於場次 %d", ErrNotFound, participantID, sessionID)
	}

	movie := &models.Movie{
		SessionID:     sessionID,
		Title:         title,
		SubmittedByID: participantID,
	}
	if err := s.movies.Create(movie); err != nil {
		return nil, err
	}

	s.wsManager.BroadcastToSession(sessionID, NewCandidateSubmittedEvent(sessionID, movie, participant))
	return movie, nil
}

// CastVote 在投票階段為一部仍在競爭中的電影投下一票。
// 同一參與者對同一部電影在同一回合只會留下一票，
// 重複的請求以 ErrDuplicateVote 拒絕，資料不會重複。
func (s *SessionService) CastVote(sessionID, participantID, movieID uint, round int) (*models.Vote, error) {
	defer s.lockSession(sessionID)()

	session, err := s.findSession(sessionID)
	if err != nil {
		return nil, err
	}

	if session.Status != models.StatusVoting && session.Status != models.StatusRevote {
		return nil, fmt.Errorf("%w：場次目前不在投票階段", ErrInvalidState)
	}

	// 只接受當前回合的票，遲到的票不能寫進已經結算的回合
	if round != session.CurrentRound {
		return nil, fmt.Errorf("%w：回合 %d 不是當前回合 %d", ErrInvalidValue, round, session.CurrentRound)
	}

	participant, err := s.findParticipant(participantID)
	if err != nil {
		return nil, err
	}
	if participant.SessionID != sessionID {
		return nil, fmt.Errorf("%w：參與者 %d 不屬於場次 %d", ErrNotFound, participantID, sessionID)
	}

	movie, err := s.findMovie(movieID)
	if err != nil {
		return nil, err
	}
	if movie.SessionID != sessionID {
		return nil, fmt.Errorf("%w：電影 %d 不屬於場次 %d", ErrNotFound, movieID, sessionID)
	}
	if !movie.Active() {
		return nil, fmt.Errorf("%w：《%s》已在第 %d 回合遭到淘汰", ErrInvalidTarget, movie.Title, *movie.EliminatedRound)
	}

	if _, err := s.votes.FindVote(participantID, movieID, round); err == nil {
		return nil, ErrDuplicateVote
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	vote := &models.Vote{
		SessionID:     sessionID,
		ParticipantID: participantID,
		MovieID:       movieID,
		Round:         round,
	}
	if err := s.votes.Create(vote); err != nil {
		// 唯一索引擋下了同時寫入的另一票
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateVote
		}
		return nil, err
	}

	summaries, err := s.roundSummaries(sessionID, round)
	if err != nil {
		return nil, err
	}

	s.wsManager.BroadcastToSession(sessionID, NewVoteCastEvent(sessionID, vote, summaries, participant, movie))
	return vote, nil
}

// AdvanceRound 結算當前回合並進入下一回合：統計存活電影的得票、
// 淘汰最低票的電影、回合數加一，剩下至多一部電影時結束場次。
// 事件依序廣播：每部被淘汰的電影一則 candidate_eliminated，
// 接著一則 round_advanced，有贏家時最後才是 session_finished。
func (s *SessionService) AdvanceRound(sessionID uint) (*RoundAdvanceResult, error) {
	defer s.lockSession(sessionID)()

	session, err := s.findSession(sessionID)
	if err != nil {
		return nil, err
	}

	// finished 是終點狀態，結束後的場次不再結算
	if session.Status == models.StatusFinished {
		return nil, fmt.Errorf("%w：場次已經結束", ErrInvalidState)
	}

	activeMovies, err := s.movies.FindActiveBySession(sessionID)
	if err != nil {
		return nil, err
	}
	roundVotes, err := s.votes.FindByRound(sessionID, session.CurrentRound)
	if err != nil {
		return nil, err
	}

	// 統計範圍只涵蓋存活的電影，已淘汰的電影不會被重複淘汰
	tally := TallyVotes(activeMovies, roundVotes)
	eliminatedIDs := DecideElimination(tally)

	titles := make(map[uint]string, len(activeMovies))
	for _, movie := range activeMovies {
		titles[movie.ID] = movie.Title
	}

	oldRound := session.CurrentRound
	eliminated := make([]EliminatedMovie, 0, len(eliminatedIDs))
	eliminatedSet := make(map[uint]struct{}, len(eliminatedIDs))
	for _, movieID := range eliminatedIDs {
		if err := s.movies.MarkEliminated(movieID, oldRound); err != nil {
			return nil, err
		}
		eliminatedSet[movieID] = struct{}{}
		eliminated = append(eliminated, EliminatedMovie{
			MovieID:         movieID,
			Title:           titles[movieID],
			VoteCount:       tally[movieID],
			EliminatedRound: oldRound,
		})
	}

	session.CurrentRound++

	var winner *Winner
	activeCount := len(activeMovies) - len(eliminatedIDs)
	if IsGameOver(activeCount) {
		session.Status = models.StatusFinished
		// 剩一部時就是贏家；剩零部是全數同票的退化情況，沒有贏家
		if activeCount == 1 {
			for _, movie := range activeMovies {
				if _, gone := eliminatedSet[movie.ID]; !gone {
					winner = &Winner{MovieID: movie.ID, Title: movie.Title}
					winnerID := movie.ID
					session.WinnerMovieID = &winnerID
					break
				}
			}
		}
	}

	if err := s.sessions.Update(session); err != nil {
		return nil, err
	}

	for _, movie := range eliminated {
		s.wsManager.BroadcastToSession(sessionID, NewCandidateEliminatedEvent(sessionID, movie))
	}
	s.wsManager.BroadcastToSession(sessionID,
		NewRoundAdvancedEvent(sessionID, oldRound, session.CurrentRound, len(eliminated)))
	if winner != nil {
		s.wsManager.BroadcastToSession(sessionID, NewSessionFinishedEvent(sessionID, winner))
	}

	voteCounts := make([]VoteSummary, 0, len(activeMovies))
	for _, movie := range activeMovies {
		voteCounts = append(voteCounts, VoteSummary{
			MovieID:   movie.ID,
			Title:     movie.Title,
			VoteCount: tally[movie.ID],
			Round:     oldRound,
		})
	}

	return &RoundAdvanceResult{
		OldRound:   oldRound,
		NewRound:   session.CurrentRound,
		Eliminated: eliminated,
		Winner:     winner,
		VoteCounts: voteCounts,
		Status:     session.Status,
	}, nil
}

// UpdateStatus 手動切換場次狀態。只檢查值是否合法，不檢查轉換是否連續，
// revote 本來就是跳過自動淘汰流程的人工操作路徑。
func (s *SessionService) UpdateStatus(sessionID uint, status models.SessionStatus) (*models.Session, error) {
	if !models.ValidStatus(status) {
		return nil, fmt.Errorf("%w：未知的場次狀態 %q", ErrInvalidValue, status)
	}

	defer s.lockSession(sessionID)()

	session, err := s.findSession(sessionID)
	if err != nil {
		return nil, err
	}

	session.Status = status
	if err := s.sessions.Update(session); err != nil {
		return nil, err
	}

	s.wsManager.BroadcastToSession(sessionID, NewSessionStatusUpdatedEvent(sessionID, status))
	return session, nil
}

// GetRoundResults 回報某回合的唯讀結果預覽。
// 和 AdvanceRound 不同，全部同票時這裡視為「沒有人被淘汰」，
// 兩邊的規則刻意保持各自原樣。
func (s *SessionService) GetRoundResults(sessionID uint, round int) (*RoundResults, error) {
	if _, err := s.findSession(sessionID); err != nil {
		return nil, err
	}

	summaries, err := s.roundSummaries(sessionID, round)
	if err != nil {
		return nil, err
	}

	var eliminated []uint
	if len(summaries) > 0 {
		minVotes, maxVotes := summaries[0].VoteCount, summaries[0].VoteCount
		for _, summary := range summaries[1:] {
			if summary.VoteCount < minVotes {
				minVotes = summary.VoteCount
			}
			if summary.VoteCount > maxVotes {
				maxVotes = summary.VoteCount
			}
		}
		if minVotes < maxVotes {
			for _, summary := range summaries {
				if summary.VoteCount == minVotes {
					eliminated = append(eliminated, summary.MovieID)
				}
			}
		}
	}

	return &RoundResults{
		Round:            round,
		Votes:            summaries,
		EliminatedMovies: eliminated,
	}, nil
}

func (s *SessionService) ListParticipants(sessionID uint) ([]models.Participant, error) {
	if _, err := s.findSession(sessionID); err != nil {
		return nil, err
	}
	return s.participants.FindBySession(sessionID)
}

func (s *SessionService) ListMovies(sessionID uint) ([]models.Movie, error) {
	if _, err := s.findSession(sessionID); err != nil {
		return nil, err
	}
	return s.movies.FindBySession(sessionID)
}

func (s *SessionService) ListVotes(sessionID uint) ([]models.Vote, error) {
	if _, err := s.findSession(sessionID); err != nil {
		return nil, err
	}
	return s.votes.FindBySession(sessionID)
}

// roundSummaries 整理某回合所有電影的得票摘要，沒有得票的補 0
func (s *SessionService) roundSummaries(sessionID uint, round int) ([]VoteSummary, error) {
	movies, err := s.movies.FindBySession(sessionID)
	if err != nil {
		return nil, err
	}
	votes, err := s.votes.FindByRound(sessionID, round)
	if err != nil {
		return nil, err
	}

	tally := TallyVotes(movies, votes)
	summaries := make([]VoteSummary, 0, len(movies))
	for _, movie := range movies {
		summaries = append(summaries, VoteSummary{
			MovieID:   movie.ID,
			Title:     movie.Title,
			VoteCount: tally[movie.ID],
			Round:     round,
		})
	}
	return summaries, nil
}

func (s *SessionService) findSession(sessionID uint) (*models.Session, error) {
	session, err := s.sessions.FindByID(sessionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w：場次 %d 不存在", ErrNotFound, sessionID)
	}
	return session, err
}

func (s *SessionService) findParticipant(participantID uint) (*models.Participant, error) {
	participant, err := s.participants.FindByID(participantID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w：參與者 %d 不存在", ErrNotFound, participantID)
	}
	return participant, err
}

func (s *SessionService) findMovie(movieID uint) (*models.Movie, error) {
	movie, err := s.movies.FindByID(movieID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w：電影 %d 不存在", ErrNotFound, movieID)
	}
	return movie, err
}
