package queries

import (
	"errors"
	"time"

	"gitlab.com/sfr-tokyo/economy_api/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateProposal persists a new governance proposal
func (repo *Repo) CreateProposal(proposal *model.GovernanceProposal) error {
	return repo.Conn.Create(proposal).Error
}

// UpdateProposal saves proposal changes. Accepts a transaction when the tally
// update pairs with a vote row.
func (repo *Repo) UpdateProposal(tx *gorm.DB, proposal *model.GovernanceProposal) error {
	if tx == nil {
		tx = repo.Conn
	}
	return tx.Save(proposal).Error
}

// GetProposal returns a governance proposal by id
func (repo *Repo) GetProposal(id uint64) (*model.GovernanceProposal, error) {
	proposal := &model.GovernanceProposal{}
	db := repo.ConnReader.First(proposal, "id = ?", id)
	if errors.Is(db.Error, gorm.ErrRecordNotFound) {
		return nil, gorm.ErrRecordNotFound
	}
	return proposal, db.Error
}

// GetProposalForUpdate loads a proposal with a row lock so concurrent votes
// serialize on the tally
func (repo *Repo) GetProposalForUpdate(tx *gorm.DB, id uint64) (*model.GovernanceProposal, error) {
	proposal := &model.GovernanceProposal{}
	db := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(proposal, "id = ?", id)
	if errors.Is(db.Error, gorm.ErrRecordNotFound) {
		return nil, gorm.ErrRecordNotFound
	}
	return proposal, db.Error
}

// GetEndedProposalVotes returns voting proposals whose window has closed
func (repo *Repo) GetEndedProposalVotes(now time.Time) ([]*model.GovernanceProposal, error) {
	proposals := make([]*model.GovernanceProposal, 0)
	db := repo.Conn.
		Where("status = ?", model.ProposalStatus_VotingActive).
		Where("voting_end_date < ?", now).
		Find(&proposals)
	return proposals, db.Error
}

// GetOverdueQueuedProposals returns queued proposals past their execution
// deadline
func (repo *Repo) GetOverdueQueuedProposals(now time.Time) ([]*model.GovernanceProposal, error) {
	proposals := make([]*model.GovernanceProposal, 0)
	db := repo.Conn.
		Where("status = ?", model.ProposalStatus_Queued).
		Where("execution_deadline < ?", now).
		Find(&proposals)
	return proposals, db.Error
}

// GetProposals lists proposals of a space with paging
func (repo *Repo) GetProposals(spaceID uint64, status model.ProposalStatus, limit, page int) (*model.GovernanceProposalList, error) {
	proposals := make([]model.GovernanceProposal, 0)
	var rowCount int64

	q := repo.ConnReader.Table("governance_proposals").Where("space_id = ?", spaceID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	dbc := q.Count(&rowCount)
	if dbc.Error != nil {
		return nil, dbc.Error
	}
	db := q.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&proposals)
	proposalList := model.GovernanceProposalList{
		Proposals: proposals,
		Meta: model.PagingMeta{
			Page:  page,
			Count: rowCount,
			Limit: limit,
			Filter: map[string]interface{}{
				"status": status.String(),
			},
		},
	}
	return &proposalList, db.Error
}

// CreateVote persists a vote inside the given transaction, paired with the
// proposal tally update
func (repo *Repo) CreateVote(tx *gorm.DB, vote *model.GovernanceVote) error {
	return tx.Create(vote).Error
}

// UpdateVote saves vote changes inside the given transaction
func (repo *Repo) UpdateVote(tx *gorm.DB, vote *model.GovernanceVote) error {
	return tx.Save(vote).Error
}

// GetVote returns a voter's vote on a proposal, nil when the voter has not
// voted yet
func (repo *Repo) GetVote(proposalID, voterID uint64) (*model.GovernanceVote, error) {
	vote := &model.GovernanceVote{}
	db := repo.Conn.First(vote, "proposal_id = ? AND voter_id = ?", proposalID, voterID)
	if errors.Is(db.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return vote, db.Error
}

// GetVotes lists the votes on a proposal with paging
func (repo *Repo) GetVotes(proposalID uint64, limit, page int) (*model.GovernanceVoteList, error) {
	votes := make([]model.GovernanceVote, 0)
	var rowCount int64

	q := repo.ConnReader.Table("governance_votes").Where("proposal_id = ?", proposalID)
	dbc := q.Count(&rowCount)
	if dbc.Error != nil {
		return nil, dbc.Error
	}
	db := q.Order("voted_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&votes)
	voteList := model.GovernanceVoteList{
		Votes: votes,
		Meta: model.PagingMeta{
			Page:  page,
			Count: rowCount,
			Limit: limit,
		},
	}
	return &voteList, db.Error
}
