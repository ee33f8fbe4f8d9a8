package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"

	"github.com/abrezinsky/quizroom/internal/logger"
	"github.com/abrezinsky/quizroom/internal/models"
	"github.com/abrezinsky/quizroom/internal/repository"
)

// ParticipantRepository is the storage used by ParticipantService
type ParticipantRepository interface {
	repository.GameRepository
	repository.ParticipantRepository
}

// ParticipantService handles registration of teams and players
type ParticipantService struct {
	log      logger.Logger
	repo     ParticipantRepository
	settings SettingsServicer
}

// NewParticipantService creates a new ParticipantService
func NewParticipantService(log logger.Logger, repo ParticipantRepository, settings SettingsServicer) *ParticipantService {
	return &ParticipantService{log: log, repo: repo, settings: settings}
}

// Registration is the form a team or player fills in to join a game
type Registration struct {
	TeamName   string
	LastName   string
	FirstName  string
	MiddleName string
}

// Register joins the browser session to a game. Team games need a team name;
// individual games need the full name, which also becomes the display name.
// Registering an already registered session returns the existing participant.
func (s *ParticipantService) Register(ctx context.Context, gameID int64, sessionKey string, reg Registration) (*models.Participant, error) {
	sessionKey = strings.TrimSpace(sessionKey)
	if sessionKey == "" || sessionKey == models.AnonymousUser {
		return nil, ErrSessionRequired
	}
	game, err := s.repo.GetGame(ctx, gameID)
	if err != nil {
		return nil, notFound(err, ErrGameNotFound)
	}

	p := models.Participant{GameID: game.ID, SessionKey: sessionKey}
	switch game.Mode {
	case models.ModeIndividual:
		p.LastName = strings.TrimSpace(reg.LastName)
		p.FirstName = strings.TrimSpace(reg.FirstName)
		p.MiddleName = strings.TrimSpace(reg.MiddleName)
		if p.LastName == "" || p.FirstName == "" || p.MiddleName == "" {
			return nil, ErrFullNameRequired
		}
		p.TeamName = p.FullName()
	default:
		p.TeamName = strings.TrimSpace(reg.TeamName)
		if p.TeamName == "" {
			return nil, ErrTeamNameRequired
		}
	}

	id, err := s.repo.CreateParticipant(ctx, &p)
	if err == repository.ErrDuplicate {
		existing, err := s.repo.GetParticipantBySession(ctx, gameID, sessionKey)
		if err != nil {
			return nil, notFound(err, ErrParticipantNotFound)
		}
		return existing, nil
	}
	if err != nil {
		return nil, err
	}
	p.ID = id

	s.log.Info("Participant registered", "game_id", gameID, "participant_id", id, "name", p.DisplayName())
	return s.Get(ctx, id)
}

// Get returns a participant
func (s *ParticipantService) Get(ctx context.Context, id int64) (*models.Participant, error) {
	p, err := s.repo.GetParticipant(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrParticipantNotFound)
	}
	return p, nil
}

// FindBySession returns the participant a browser session registered in a game
func (s *ParticipantService) FindBySession(ctx context.Context, gameID int64, sessionKey string) (*models.Participant, error) {
	if sessionKey == "" {
		return nil, ErrParticipantNotFound
	}
	p, err := s.repo.GetParticipantBySession(ctx, gameID, sessionKey)
	if err != nil {
		return nil, notFound(err, ErrParticipantNotFound)
	}
	return p, nil
}

// List returns all participants of a game, highest score first
func (s *ParticipantService) List(ctx context.Context, gameID int64) ([]models.Participant, error) {
	if _, err := s.repo.GetGame(ctx, gameID); err != nil {
		return nil, notFound(err, ErrGameNotFound)
	}
	return s.repo.ListParticipants(ctx, gameID)
}

// Ratings returns the score board of a game, highest score first
func (s *ParticipantService) Ratings(ctx context.Context, gameID int64) ([]models.Rating, error) {
	if _, err := s.repo.GetGame(ctx, gameID); err != nil {
		return nil, notFound(err, ErrGameNotFound)
	}
	return ratings(ctx, s.repo, gameID)
}

// RegistrationURL returns the address players open to join a game
func (s *ParticipantService) RegistrationURL(ctx context.Context, gameID int64) (string, error) {
	if _, err := s.repo.GetGame(ctx, gameID); err != nil {
		return "", notFound(err, ErrGameNotFound)
	}
	path := fmt.Sprintf("/games/%d/register", gameID)
	if s.settings == nil {
		return path, nil
	}
	baseURL, err := s.settings.GetBaseURL(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(baseURL, "/") + path, nil
}

// RegistrationQR renders the registration address of a game as a PNG QR code
func (s *ParticipantService) RegistrationQR(ctx context.Context, gameID int64) ([]byte, error) {
	url, err := s.RegistrationURL(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(url, qrcode.Medium, 256)
}
