package service

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"watch_what/internal/models"
	"watch_what/internal/repository"
)

// 記憶體版的資料層，行為模仿 gorm 實作：
// 查詢回傳複本（只有 Update 會寫回）、重複的投票回報 ErrDuplicate、
// 淘汰回合只設定一次。

type memStore struct {
	mu           sync.Mutex
	nextID       uint
	sessions     map[uint]models.Session
	participants map[uint]models.Participant
	movies       map[uint]models.Movie
	votes        []models.Vote
}

func newMemStore() *memStore {
	return &memStore{
		sessions:     make(map[uint]models.Session),
		participants: make(map[uint]models.Participant),
		movies:       make(map[uint]models.Movie),
	}
}

func (s *memStore) id() uint {
	s.nextID++
	return s.nextID
}

type memSessionRepo struct{ s *memStore }

func (r *memSessionRepo) Create(session *models.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.sessions {
		if existing.Code == session.Code {
			return repository.ErrDuplicate
		}
	}
	session.ID = r.s.id()
	r.s.sessions[session.ID] = *session
	return nil
}

func (r *memSessionRepo) FindByID(id uint) (*models.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	session, ok := r.s.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := session
	out.Participants = participantsOf(r.s, id)
	out.Movies = moviesOf(r.s, id)
	return &out, nil
}

func (r *memSessionRepo) FindByCode(code string) (*models.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, session := range r.s.sessions {
		if session.Code == code {
			out := session
			out.Participants = participantsOf(r.s, session.ID)
			out.Movies = moviesOf(r.s, session.ID)
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memSessionRepo) Update(session *models.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.sessions[session.ID]; !ok {
		return repository.ErrNotFound
	}
	stored := *session
	stored.Participants = nil
	stored.Movies = nil
	r.s.sessions[session.ID] = stored
	return nil
}

type memParticipantRepo struct{ s *memStore }

func (r *memParticipantRepo) Create(participant *models.Participant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	participant.ID = r.s.id()
	r.s.participants[participant.ID] = *participant
	return nil
}

func (r *memParticipantRepo) FindByID(id uint) (*models.Participant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	participant, ok := r.s.participants[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := participant
	return &out, nil
}

func (r *memParticipantRepo) FindBySession(sessionID uint) ([]models.Participant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return participantsOf(r.s, sessionID), nil
}

type memMovieRepo struct{ s *memStore }

func (r *memMovieRepo) Create(movie *models.Movie) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	movie.ID = r.s.id()
	r.s.movies[movie.ID] = *movie
	return nil
}

func (r *memMovieRepo) FindByID(id uint) (*models.Movie, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	movie, ok := r.s.movies[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := movie
	return &out, nil
}

func (r *memMovieRepo) FindBySession(sessionID uint) ([]models.Movie, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return moviesOf(r.s, sessionID), nil
}

func (r *memMovieRepo) FindActiveBySession(sessionID uint) ([]models.Movie, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var movies []models.Movie
	for _, movie := range moviesOf(r.s, sessionID) {
		if movie.Active() {
			movies = append(movies, movie)
		}
	}
	return movies, nil
}

func (r *memMovieRepo) MarkEliminated(movieID uint, round int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	movie, ok := r.s.movies[movieID]
	if !ok {
		return nil
	}
	// 和 gorm 實作一樣：已設定過的淘汰回合不會被覆寫
	if movie.EliminatedRound == nil {
		movie.EliminatedRound = &round
		r.s.movies[movieID] = movie
	}
	return nil
}

type memVoteRepo struct{ s *memStore }

func (r *memVoteRepo) Create(vote *models.Vote) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.votes {
		if existing.ParticipantID == vote.ParticipantID &&
			existing.MovieID == vote.MovieID &&
			existing.Round == vote.Round {
			return repository.ErrDuplicate
		}
	}
	vote.ID = r.s.id()
	r.s.votes = append(r.s.votes, *vote)
	return nil
}

func (r *memVoteRepo) FindVote(participantID, movieID uint, round int) (*models.Vote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, vote := range r.s.votes {
		if vote.ParticipantID == participantID && vote.MovieID == movieID && vote.Round == round {
			out := vote
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memVoteRepo) FindByRound(sessionID uint, round int) ([]models.Vote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var votes []models.Vote
	for _, vote := range r.s.votes {
		if vote.SessionID == sessionID && vote.Round == round {
			votes = append(votes, vote)
		}
	}
	return votes, nil
}

func (r *memVoteRepo) FindBySession(sessionID uint) ([]models.Vote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var votes []models.Vote
	for _, vote := range r.s.votes {
		if vote.SessionID == sessionID {
			votes = append(votes, vote)
		}
	}
	return votes, nil
}

func participantsOf(s *memStore, sessionID uint) []models.Participant {
	var participants []models.Participant
	for _, participant := range s.participants {
		if participant.SessionID == sessionID {
			participants = append(participants, participant)
		}
	}
	sort.Slice(participants, func(i, j int) bool { return participants[i].ID < participants[j].ID })
	return participants
}

func moviesOf(s *memStore, sessionID uint) []models.Movie {
	var movies []models.Movie
	for _, movie := range s.movies {
		if movie.SessionID == sessionID {
			movies = append(movies, movie)
		}
	}
	sort.Slice(movies, func(i, j int) bool { return movies[i].ID < movies[j].ID })
	return movies
}

func newTestService() (*SessionService, *WebSocketManager) {
	store := newMemStore()
	repos := &repository.Repositories{
		Session:     &memSessionRepo{s: store},
		Participant: &memParticipantRepo{s: store},
		Movie:       &memMovieRepo{s: store},
		Vote:        &memVoteRepo{s: store},
	}

	wsManager := NewWebSocketManager()
	return NewSessionService(repos, wsManager), wsManager
}

// subscribe 註冊一個假的連線，之後可以從 SendChan 讀出廣播的事件
func subscribe(wsManager *WebSocketManager, sessionID uint) *Client {
	client := NewClient(nil, sessionID)
	wsManager.Register(client)
	return client
}

// drainEventTypes 讀出目前為止廣播給該連線的事件類型，依送達順序排列
func drainEventTypes(t *testing.T, client *Client) []string {
	t.Helper()
	var types []string
	for {
		select {
		case payload := <-client.SendChan:
			var event struct {
				Type string `json:"type"`
			}
			require.NoError(t, json.Unmarshal(payload, &event))
			types = append(types, event.Type)
		default:
			return types
		}
	}
}

// setupVotingSession 建立一個已經進入投票階段的場次：
// 參與者與電影各依傳入名單建立，回傳場次、參與者與電影
func setupVotingSession(t *testing.T, svc *SessionService, names, titles []string) (*models.Session, []models.Participant, []models.Movie) {
	t.Helper()

	session, err := svc.CreateSession()
	require.NoError(t, err)

	var participants []models.Participant
	for _, name := range names {
		participant, err := svc.JoinSession(session.ID, name)
		require.NoError(t, err)
		participants = append(participants, *participant)
	}

	var movies []models.Movie
	for i, title := range titles {
		movie, err := svc.SubmitMovie(session.ID, participants[i%len(participants)].ID, title)
		require.NoError(t, err)
		movies = append(movies, *movie)
	}

	_, err = svc.UpdateStatus(session.ID, models.StatusVoting)
	require.NoError(t, err)

	session, err = svc.GetSession(session.ID)
	require.NoError(t, err)
	return session, participants, movies
}

func TestCreateSession(t *testing.T) {
	svc, _ := newTestService()

	session, err := svc.CreateSession()
	require.NoError(t, err)

	assert.Len(t, session.Code, 6)
	assert.Equal(t, models.StatusSubmission, session.Status)
	assert.Equal(t, 1, session.CurrentRound)
	assert.Nil(t, session.WinnerMovieID)
}

// 代碼碰撞時換一組重試
func TestCreateSessionRetriesOnCodeCollision(t *testing.T) {
	svc, _ := newTestService()
	collider := &collideOnce{SessionRepository: svc.sessions}
	svc.sessions = collider

	session, err := svc.CreateSession()
	require.NoError(t, err)
	assert.True(t, collider.collided)
	assert.NotZero(t, session.ID)
}

type collideOnce struct {
	repository.SessionRepository
	collided bool
}

func (c *collideOnce) Create(session *models.Session) error {
	if !c.collided {
		c.collided = true
		return repository.ErrDuplicate
	}
	return c.SessionRepository.Create(session)
}

func TestJoinSession(t *testing.T) {
	svc, wsManager := newTestService()
	session, err := svc.CreateSession()
	require.NoError(t, err)

	client := subscribe(wsManager, session.ID)

	participant, err := svc.JoinSession(session.ID, "小美")
	require.NoError(t, err)
	assert.Equal(t, "小美", participant.Name)
	assert.Equal(t, session.ID, participant.SessionID)

	assert.Equal(t, []string{EventParticipantJoined}, drainEventTypes(t, client))
}

func TestJoinSessionRejectedOutsideSubmission(t *testing.T) {
	svc, _ := newTestService()
	session, err := svc.CreateSession()
	require.NoError(t, err)

	_, err = svc.UpdateStatus(session.ID, models.StatusVoting)
	require.NoError(t, err)

	_, err = svc.JoinSession(session.ID, "遲到的人")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestJoinSessionNotFound(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.JoinSession(999, "someone")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubmitMovieRejectedOutsideSubmission(t *testing.T) {
	svc, _ := newTestService()
	session, _, _ := setupVotingSession(t, svc, []string{"p1"}, []string{"A"})

	_, err := svc.SubmitMovie(session.ID, session.Participants[0].ID, "太晚了")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSubmitMovieParticipantMustBelongToSession(t *testing.T) {
	svc, _ := newTestService()
	sessionA, err := svc.CreateSession()
	require.NoError(t, err)
	sessionB, err := svc.CreateSession()
	require.NoError(t, err)

	outsider, err := svc.JoinSession(sessionB.ID, "外人")
	require.NoError(t, err)

	_, err = svc.SubmitMovie(sessionA.ID, outsider.ID, "不該出現")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCastVoteRejectedOutsideVoting(t *testing.T) {
	svc, _ := newTestService()
	session, err := svc.CreateSession()
	require.NoError(t, err)
	participant, err := svc.JoinSession(session.ID, "p1")
	require.NoError(t, err)
	movie, err := svc.SubmitMovie(session.ID, participant.ID, "A")
	require.NoError(t, err)

	_, err = svc.CastVote(session.ID, participant.ID, movie.ID, 1)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCastVoteAcceptedInRevote(t *testing.T) {
	svc, _ := newTestService()
	session, participants, movies := setupVotingSession(t, svc, []string{"p1"}, []string{"A", "B"})

	_, err := svc.UpdateStatus(session.ID, models.StatusRevote)
	require.NoError(t, err)

	_, err = svc.CastVote(session.ID, participants[0].ID, movies[0].ID, 1)
	assert.NoError(t, err)
}

func TestCastVoteWrongRound(t *testing.T) {
	svc, _ := newTestService()
	session, participants, movies := setupVotingSession(t, svc, []string{"p1"}, []string{"A", "B"})

	_, err := svc.CastVote(session.ID, participants[0].ID, movies[0].ID, 2)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestCastVoteEliminatedTarget(t *testing.T) {
	svc, _ := newTestService()
	session, participants, movies := setupVotingSession(t, svc, []string{"p1", "p2"}, []string{"A", "B", "C"})

	// B、C 各得一票，A 墊底出局
	_, err := svc.CastVote(session.ID, participants[0].ID, movies[1].ID, 1)
	require.NoError(t, err)
	_, err = svc.CastVote(session.ID, participants[1].ID, movies[2].ID, 1)
	require.NoError(t, err)
	_, err = svc.AdvanceRound(session.ID)
	require.NoError(t, err)

	_, err = svc.CastVote(session.ID, participants[0].ID, movies[0].ID, 2)
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func TestCastVoteIdempotent(t *testing.T) {
	svc, _ := newTestService()
	session, participants, movies := setupVotingSession(t, svc, []string{"p1"}, []string{"A", "B"})

	_, err := svc.CastVote(session.ID, participants[0].ID, movies[0].ID, 1)
	require.NoError(t, err)

	// 同一組 (參與者, 電影, 回合) 的第二票被拒絕
	_, err = svc.CastVote(session.ID, participants[0].ID, movies[0].ID, 1)
	assert.ErrorIs(t, err, ErrDuplicateVote)

	// 資料裡也只有一票
	votes, err := svc.ListVotes(session.ID)
	require.NoError(t, err)
	assert.Len(t, votes, 1)
}

func TestCastVoteBroadcastsFullTally(t *testing.T) {
	svc, wsManager := newTestService()
	session, participants, movies := setupVotingSession(t, svc, []string{"p1"}, []string{"A", "B"})

	client := subscribe(wsManager, session.ID)

	_, err := svc.CastVote(session.ID, participants[0].ID, movies[1].ID, 1)
	require.NoError(t, err)

	payload := <-client.SendChan
	var event VoteCastEvent
	require.NoError(t, json.Unmarshal(payload, &event))

	assert.Equal(t, EventVoteCast, event.Type)
	assert.Equal(t, session.ID, event.SessionID)
	// 快照涵蓋每一部電影，沒得票的補 0
	require.Len(t, event.VoteSummaries, 2)
	assert.Equal(t, 0, event.VoteSummaries[0].VoteCount)
	assert.Equal(t, 1, event.VoteSummaries[1].VoteCount)
}

func TestAdvanceRoundEliminatesLowest(t *testing.T) {
	svc, _ := newTestService()
	session, participants, movies := setupVotingSession(t, svc, []string{"p1", "p2"}, []string{"A", "B", "C"})

	// A:0 票、B:1 票、C:2 票
	_, err := svc.CastVote(session.ID, participants[0].ID, movies[1].ID, 1)
	require.NoError(t, err)
	_, err = svc.CastVote(session.ID, participants[0].ID, movies[2].ID, 1)
	require.NoError(t, err)
	_, err = svc.CastVote(session.ID, participants[1].ID, movies[2].ID, 1)
	require.NoError(t, err)

	result, err := svc.AdvanceRound(session.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, result.OldRound)
	assert.Equal(t, 2, result.NewRound)
	require.Len(t, result.Eliminated, 1)
	assert.Equal(t, movies[0].ID, result.Eliminated[0].MovieID)
	assert.Equal(t, 0, result.Eliminated[0].VoteCount)
	assert.Equal(t, 1, result.Eliminated[0].EliminatedRound)
	assert.Nil(t, result.Winner)

	session, err = svc.GetSession(session.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, session.CurrentRound)
	assert.Equal(t, models.StatusVoting, session.Status)
}

func TestAdvanceRoundDeclaresWinner(t *testing.T) {
	svc, wsManager := newTestService()
	session, participants, movies := setupVotingSession(t, svc, []string{"p1", "p2", "p3"}, []string{"A", "B"})

	client := subscribe(wsManager, session.ID)

	// A:0 票、B:3 票
	for _, participant := range participants {
		_, err := svc.CastVote(session.ID, participant.ID, movies[1].ID, 1)
		require.NoError(t, err)
	}

	result, err := svc.AdvanceRound(session.ID)
	require.NoError(t, err)

	require.NotNil(t, result.Winner)
	assert.Equal(t, movies[1].ID, result.Winner.MovieID)
	assert.Equal(t, "B", result.Winner.Title)
	assert.Equal(t, models.StatusFinished, result.Status)

	session, err = svc.GetSession(session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFinished, session.Status)
	require.NotNil(t, session.WinnerMovieID)
	assert.Equal(t, movies[1].ID, *session.WinnerMovieID)

	// 事件順序：三則 vote_cast 之後，淘汰先於回合推進，結束訊息墊後
	types := drainEventTypes(t, client)
	assert.Equal(t, []string{
		EventVoteCast, EventVoteCast, EventVoteCast,
		EventCandidateEliminated, EventRoundAdvanced, EventSessionFinished,
	}, types)
}

func TestAdvanceRoundAllTiedEliminatesEveryone(t *testing.T) {
	svc, wsManager := newTestService()
	session, participants, movies := setupVotingSession(t, svc, []string{"p1"}, []string{"A", "B"})

	client := subscribe(wsManager, session.ID)

	// 兩部各一票，全數同票
	_, err := svc.CastVote(session.ID, participants[0].ID, movies[0].ID, 1)
	require.NoError(t, err)
	_, err = svc.CastVote(session.ID, participants[0].ID, movies[1].ID, 1)
	require.NoError(t, err)

	result, err := svc.AdvanceRound(session.ID)
	require.NoError(t, err)

	assert.Len(t, result.Eliminated, 2)
	assert.Nil(t, result.Winner)
	assert.Equal(t, models.StatusFinished, result.Status)

	session, err = svc.GetSession(session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFinished, session.Status)
	assert.Nil(t, session.WinnerMovieID)

	// 沒有贏家就沒有 session_finished
	types := drainEventTypes(t, client)
	assert.Equal(t, []string{
		EventVoteCast, EventVoteCast,
		EventCandidateEliminated, EventCandidateEliminated, EventRoundAdvanced,
	}, types)
}

func TestAdvanceRoundDoesNotReEliminate(t *testing.T) {
	svc, _ := newTestService()
	session, participants, movies := setupVotingSession(t, svc, []string{"p1", "p2"}, []string{"A", "B", "C"})

	// 第一回合淘汰 A
	_, err := svc.CastVote(session.ID, participants[0].ID, movies[1].ID, 1)
	require.NoError(t, err)
	_, err = svc.CastVote(session.ID, participants[1].ID, movies[2].ID, 1)
	require.NoError(t, err)
	_, err = svc.AdvanceRound(session.ID)
	require.NoError(t, err)

	// 第二回合只投 C，B 墊底；A 已經出局不能再被淘汰
	_, err = svc.CastVote(session.ID, participants[0].ID, movies[2].ID, 2)
	require.NoError(t, err)

	result, err := svc.AdvanceRound(session.ID)
	require.NoError(t, err)

	require.Len(t, result.Eliminated, 1)
	assert.Equal(t, movies[1].ID, result.Eliminated[0].MovieID)
	assert.Equal(t, 2, result.Eliminated[0].EliminatedRound)

	// A 的淘汰回合維持第一次設定的值
	listed, err := svc.ListMovies(session.ID)
	require.NoError(t, err)
	require.NotNil(t, listed[0].EliminatedRound)
	assert.Equal(t, 1, *listed[0].EliminatedRound)
}

func TestAdvanceRoundMonotonic(t *testing.T) {
	svc, _ := newTestService()
	session, participants, movies := setupVotingSession(t, svc, []string{"p1"},
		[]string{"A", "B", "C", "D", "E"})

	// 每回合只讓一部電影墊底，回合數每次恰好加一
	for i := 0; i < 3; i++ {
		for _, movie := range movies[i+1:] {
			_, err := svc.CastVote(session.ID, participants[0].ID, movie.ID, i+1)
			require.NoError(t, err)
		}

		result, err := svc.AdvanceRound(session.ID)
		require.NoError(t, err)
		assert.Equal(t, i+1, result.OldRound)
		assert.Equal(t, i+2, result.NewRound)
		require.Len(t, result.Eliminated, 1)
		assert.Equal(t, movies[i].ID, result.Eliminated[0].MovieID)
	}
}

func TestAdvanceRoundRejectedWhenFinished(t *testing.T) {
	svc, _ := newTestService()
	session, _, _ := setupVotingSession(t, svc, []string{"p1"}, []string{"A", "B"})

	// 沒人投票，全數同票一次出清，場次結束
	_, err := svc.AdvanceRound(session.ID)
	require.NoError(t, err)

	_, err = svc.AdvanceRound(session.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

// 不斷推進回合，場次最多在（初始電影數）個回合內結束
func TestAdvanceRoundTerminates(t *testing.T) {
	svc, _ := newTestService()
	const movieCount = 4
	session, participants, _ := setupVotingSession(t, svc, []string{"p1", "p2", "p3"},
		[]string{"A", "B", "C", "D"})

	for round := 1; round <= movieCount; round++ {
		current, err := svc.GetSession(session.ID)
		require.NoError(t, err)
		if current.Status == models.StatusFinished {
			return
		}

		// 每回合讓一部存活的電影領先，其餘墊底出局，避免卡在原地
		listed, err := svc.ListMovies(session.ID)
		require.NoError(t, err)
		var target *models.Movie
		for i := range listed {
			if listed[i].Active() {
				target = &listed[i]
				break
			}
		}
		require.NotNil(t, target)
		for _, participant := range participants {
			_, err := svc.CastVote(session.ID, participant.ID, target.ID, round)
			require.NoError(t, err)
		}

		_, err = svc.AdvanceRound(session.ID)
		require.NoError(t, err)
	}

	final, err := svc.GetSession(session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFinished, final.Status)
}

func TestUpdateStatusInvalidValue(t *testing.T) {
	svc, _ := newTestService()
	session, err := svc.CreateSession()
	require.NoError(t, err)

	_, err = svc.UpdateStatus(session.ID, "paused")
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestUpdateStatusBroadcasts(t *testing.T) {
	svc, wsManager := newTestService()
	session, err := svc.CreateSession()
	require.NoError(t, err)

	client := subscribe(wsManager, session.ID)

	updated, err := svc.UpdateStatus(session.ID, models.StatusRevote)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRevote, updated.Status)

	assert.Equal(t, []string{EventSessionStatusUpdated}, drainEventTypes(t, client))
}

func TestGetSessionByCode(t *testing.T) {
	svc, _ := newTestService()
	session, err := svc.CreateSession()
	require.NoError(t, err)

	found, err := svc.GetSessionByCode(session.Code)
	require.NoError(t, err)
	assert.Equal(t, session.ID, found.ID)

	_, err = svc.GetSessionByCode("NOPE99")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetSessionStatusSummary(t *testing.T) {
	svc, _ := newTestService()
	session, participants, movies := setupVotingSession(t, svc, []string{"p1", "p2"}, []string{"A", "B", "C"})

	_, err := svc.CastVote(session.ID, participants[0].ID, movies[1].ID, 1)
	require.NoError(t, err)
	_, err = svc.CastVote(session.ID, participants[1].ID, movies[2].ID, 1)
	require.NoError(t, err)
	_, err = svc.AdvanceRound(session.ID)
	require.NoError(t, err)

	summary, err := svc.GetSessionStatus(session.ID)
	require.NoError(t, err)

	assert.Equal(t, session.Code, summary.Code)
	assert.Equal(t, 2, summary.ParticipantCount)
	assert.Equal(t, 3, summary.MovieCount)
	assert.Equal(t, 2, summary.ActiveMovieCount)
	assert.Equal(t, 2, summary.CurrentRound)
}

// 唯讀預覽的規則和正式結算不同：全部同票時視為沒有人被淘汰
func TestGetRoundResultsAllTiedPreviewsNoElimination(t *testing.T) {
	svc, _ := newTestService()
	session, participants, movies := setupVotingSession(t, svc, []string{"p1"}, []string{"A", "B"})

	_, err := svc.CastVote(session.ID, participants[0].ID, movies[0].ID, 1)
	require.NoError(t, err)
	_, err = svc.CastVote(session.ID, participants[0].ID, movies[1].ID, 1)
	require.NoError(t, err)

	results, err := svc.GetRoundResults(session.ID, 1)
	require.NoError(t, err)

	assert.Len(t, results.Votes, 2)
	assert.Empty(t, results.EliminatedMovies)
}

func TestGetRoundResultsPreviewsLowest(t *testing.T) {
	svc, _ := newTestService()
	session, participants, movies := setupVotingSession(t, svc, []string{"p1"}, []string{"A", "B"})

	_, err := svc.CastVote(session.ID, participants[0].ID, movies[1].ID, 1)
	require.NoError(t, err)

	results, err := svc.GetRoundResults(session.ID, 1)
	require.NoError(t, err)

	assert.Equal(t, []uint{movies[0].ID}, results.EliminatedMovies)
}

// 不同場次的操作互不阻塞，同場次的操作不會交錯讀到過期的統計
func TestConcurrentVotesSingleSession(t *testing.T) {
	svc, _ := newTestService()
	names := []string{"p1", "p2", "p3", "p4", "p5"}
	session, participants, movies := setupVotingSession(t, svc, names, []string{"A", "B"})

	var wg sync.WaitGroup
	for _, participant := range participants {
		wg.Add(1)
		go func(pid uint) {
			defer wg.Done()
			_, err := svc.CastVote(session.ID, pid, movies[1].ID, 1)
			assert.NoError(t, err)
		}(participant.ID)
	}
	wg.Wait()

	votes, err := svc.ListVotes(session.ID)
	require.NoError(t, err)
	assert.Len(t, votes, len(names))

	result, err := svc.AdvanceRound(session.ID)
	require.NoError(t, err)
	require.Len(t, result.Eliminated, 1)
	assert.Equal(t, movies[0].ID, result.Eliminated[0].MovieID)
}

func TestSessionJSONFieldNames(t *testing.T) {
	session := models.Session{
		Code:         "ABCD12",
		Status:       models.StatusSubmission,
		CurrentRound: 1,
	}
	session.Model = gorm.Model{ID: 7}

	raw, err := json.Marshal(&session)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	for _, key := range []string{"code", "status", "current_round", "winner_movie_id"} {
		assert.Contains(t, decoded, key, fmt.Sprintf("缺少欄位 %s", key))
	}
}
