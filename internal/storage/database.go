package storage

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/parity-hq/parity-backend/internal/apperrors"
	"github.com/parity-hq/parity-backend/internal/models"
)

// DatabaseStore implements Store on PostgreSQL via GORM
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a store backed by the given GORM connection
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrNotFound
	}
	return err
}

// User operations

func (d *DatabaseStore) CreateUser(reg *models.UserRegistration) (*models.User, error) {
	var count int64
	if err := d.db.Model(&models.User{}).Where("lower(email) = lower(?)", reg.Email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, apperrors.ErrEmailTaken
	}

	user := &models.User{
		ID:              uuid.NewString(),
		Name:            reg.Name,
		Email:           reg.Email,
		Phone:           reg.Phone,
		IsPremium:       false,
		TrialsRemaining: models.DefaultTrialCount,
	}
	if err := d.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (d *DatabaseStore) GetUser(id string) (*models.User, error) {
	var user models.User
	if err := d.db.First(&user, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &user, nil
}

func (d *DatabaseStore) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := d.db.First(&user, "lower(email) = lower(?)", email).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &user, nil
}

func (d *DatabaseStore) UpdateUser(user *models.User) error {
	result := d.db.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"name":  user.Name,
		"phone": user.Phone,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (d *DatabaseStore) ConsumeTrial(userID string) error {
	result := d.db.Model(&models.User{}).
		Where("id = ? AND trials_remaining > 0", userID).
		UpdateColumn("trials_remaining", gorm.Expr("trials_remaining - 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Either unknown user or already at zero; zero stays zero
		var count int64
		if err := d.db.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return apperrors.ErrNotFound
		}
	}
	return nil
}

func (d *DatabaseStore) SetPremium(userID string, premium bool) error {
	result := d.db.Model(&models.User{}).Where("id = ?", userID).Update("is_premium", premium)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Solo prep operations

func (d *DatabaseStore) CreateSoloPrepSession(sess *models.SoloPrepSession) (*models.SoloPrepSession, error) {
	sess.ID = uuid.NewString()
	sess.Status = models.SoloPrepStatusInProgress
	if err := d.db.Create(sess).Error; err != nil {
		return nil, err
	}
	return sess, nil
}

func (d *DatabaseStore) GetSoloPrepSession(id string) (*models.SoloPrepSession, error) {
	var sess models.SoloPrepSession
	if err := d.db.First(&sess, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &sess, nil
}

func (d *DatabaseStore) GetSoloPrepSessionsByUser(userID string) ([]*models.SoloPrepSession, error) {
	var sessions []*models.SoloPrepSession
	if err := d.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (d *DatabaseStore) UpdateSoloPrepSession(sess *models.SoloPrepSession) error {
	result := d.db.Model(&models.SoloPrepSession{}).Where("id = ?", sess.ID).Updates(map[string]interface{}{
		"status":       sess.Status,
		"completed_at": sess.CompletedAt,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (d *DatabaseStore) SaveSoloPrepResponse(resp *models.SoloPrepResponse) (*models.SoloPrepResponse, error) {
	resp.ID = uuid.NewString()
	err := d.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "prompt_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "updated_at"}),
	}).Create(resp).Error
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (d *DatabaseStore) GetSoloPrepResponses(sessionID string) ([]*models.SoloPrepResponse, error) {
	var responses []*models.SoloPrepResponse
	if err := d.db.Where("session_id = ?", sessionID).Find(&responses).Error; err != nil {
		return nil, err
	}
	return responses, nil
}

// Joint unpack session operations

func (d *DatabaseStore) CreateJointUnpackSession(sess *models.JointUnpackSession) (*models.JointUnpackSession, error) {
	sess.ID = uuid.NewString()
	sess.Status = models.SessionStatusCreated
	if err := d.db.Create(sess).Error; err != nil {
		return nil, err
	}
	return sess, nil
}

func (d *DatabaseStore) GetJointUnpackSession(id string) (*models.JointUnpackSession, error) {
	var sess models.JointUnpackSession
	if err := d.db.First(&sess, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &sess, nil
}

func (d *DatabaseStore) GetJointUnpackSessionsByInitiator(userID string) ([]*models.JointUnpackSession, error) {
	var sessions []*models.JointUnpackSession
	if err := d.db.Where("initiator_id = ?", userID).Order("created_at DESC").Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (d *DatabaseStore) UpdateSessionStatus(id string, status string) error {
	result := d.db.Model(&models.JointUnpackSession{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// CompareAndSetStatus flips status only from the expected value. The
// conditional UPDATE makes concurrent evaluation safe: exactly one caller
// wins, the rest observe swapped=false.
func (d *DatabaseStore) CompareAndSetStatus(id string, from string, to string) (bool, error) {
	result := d.db.Model(&models.JointUnpackSession{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := d.db.Model(&models.JointUnpackSession{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return false, err
		}
		if count == 0 {
			return false, apperrors.ErrNotFound
		}
		return false, nil
	}
	return true, nil
}

func (d *DatabaseStore) BindInvitee(sessionID string, inviteeName string) error {
	result := d.db.Model(&models.JointUnpackSession{}).
		Where("id = ? AND (invitee_name = '' OR invitee_name = ?)", sessionID, inviteeName).
		Update("invitee_name", inviteeName)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := d.db.Model(&models.JointUnpackSession{}).Where("id = ?", sessionID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return apperrors.ErrNotFound
		}
		return apperrors.ErrTokenAlreadyClaimed
	}
	return nil
}

func (d *DatabaseStore) SetPartyReady(sessionID string, party string) error {
	var column string
	switch party {
	case models.PartyInitiator:
		column = "initiator_ready"
	case models.PartyInvitee:
		column = "invitee_ready"
	default:
		return apperrors.ErrUnauthorized
	}

	result := d.db.Model(&models.JointUnpackSession{}).Where("id = ?", sessionID).Update(column, true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (d *DatabaseStore) DeleteJointUnpackSession(id string) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.JointUnpackSession{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}
		if err := tx.Delete(&models.PromptResponse{}, "session_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Invitation{}, "session_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Agenda{}, "session_id = ?", id).Error
	})
}

// Prompt response operations

func (d *DatabaseStore) SavePromptResponse(resp *models.PromptResponse) (*models.PromptResponse, error) {
	var count int64
	if err := d.db.Model(&models.JointUnpackSession{}).Where("id = ?", resp.SessionID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, apperrors.ErrNotFound
	}

	resp.ID = uuid.NewString()
	err := d.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "party"}, {Name: "prompt_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "updated_at"}),
	}).Create(resp).Error
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (d *DatabaseStore) GetPromptResponses(sessionID string, party string) ([]*models.PromptResponse, error) {
	var responses []*models.PromptResponse
	if err := d.db.Where("session_id = ? AND party = ?", sessionID, party).Order("prompt_id").Find(&responses).Error; err != nil {
		return nil, err
	}
	return responses, nil
}

// Invitation operations

func (d *DatabaseStore) CreateInvitation(inv *models.Invitation) (*models.Invitation, error) {
	inv.ID = uuid.NewString()
	inv.Status = models.InvitationStatusActive
	if err := d.db.Create(inv).Error; err != nil {
		return nil, err
	}
	return inv, nil
}

func (d *DatabaseStore) GetInvitationByToken(token string) (*models.Invitation, error) {
	var inv models.Invitation
	if err := d.db.First(&inv, "token = ?", token).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &inv, nil
}

func (d *DatabaseStore) GetActiveInvitationBySession(sessionID string) (*models.Invitation, error) {
	var inv models.Invitation
	err := d.db.First(&inv, "session_id = ? AND status = ?", sessionID, models.InvitationStatusActive).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &inv, nil
}

func (d *DatabaseStore) UpdateInvitation(inv *models.Invitation) error {
	result := d.db.Model(&models.Invitation{}).Where("token = ?", inv.Token).Updates(map[string]interface{}{
		"status":     inv.Status,
		"claimed_by": inv.ClaimedBy,
		"claimed_at": inv.ClaimedAt,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (d *DatabaseStore) RevokeInvitations(sessionID string) error {
	return d.db.Model(&models.Invitation{}).
		Where("session_id = ? AND status = ?", sessionID, models.InvitationStatusActive).
		Update("status", models.InvitationStatusRevoked).Error
}

func (d *DatabaseStore) DeleteExpiredInvitations() (int, error) {
	result := d.db.Delete(&models.Invitation{}, "status = ? OR expires_at < ?",
		models.InvitationStatusRevoked, time.Now())
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

// Agenda operations

func (d *DatabaseStore) SaveAgenda(agenda *models.Agenda) (*models.Agenda, error) {
	var err error
	existing := &models.Agenda{}
	findErr := d.db.First(existing, "session_id = ?", agenda.SessionID).Error

	agenda.GeneratedAt = time.Now()
	switch {
	case findErr == nil:
		agenda.ID = existing.ID
		agenda.Version = existing.Version + 1
		err = d.db.Model(&models.Agenda{}).Where("id = ?", existing.ID).Updates(map[string]interface{}{
			"version":      agenda.Version,
			"items_json":   agenda.ItemsJSON,
			"generated_at": agenda.GeneratedAt,
		}).Error
	case errors.Is(findErr, gorm.ErrRecordNotFound):
		agenda.ID = uuid.NewString()
		agenda.Version = 1
		err = d.db.Create(agenda).Error
	default:
		err = findErr
	}
	if err != nil {
		return nil, err
	}
	return agenda, nil
}

func (d *DatabaseStore) GetAgendaBySession(sessionID string) (*models.Agenda, error) {
	var agenda models.Agenda
	if err := d.db.First(&agenda, "session_id = ?", sessionID).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &agenda, nil
}

// Uplift message operations

func (d *DatabaseStore) CreateUpliftMessage(msg *models.UpliftMessage) (*models.UpliftMessage, error) {
	msg.ID = uuid.NewString()
	if err := d.db.Create(msg).Error; err != nil {
		return nil, err
	}
	return msg, nil
}

func (d *DatabaseStore) UpdateUpliftMessage(msg *models.UpliftMessage) error {
	result := d.db.Model(&models.UpliftMessage{}).Where("id = ?", msg.ID).Updates(map[string]interface{}{
		"delivery_status": msg.DeliveryStatus,
		"sent_at":         msg.SentAt,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (d *DatabaseStore) GetUpliftMessagesBySender(senderID string) ([]*models.UpliftMessage, error) {
	var messages []*models.UpliftMessage
	if err := d.db.Where("sender_id = ?", senderID).Order("created_at DESC").Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}
