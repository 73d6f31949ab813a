package app

import (
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mickys/blockbitsdev-sub000/internal/clock"
)

// Milestones 里程碑协作方
// 核心只消费释放/失职信号；投票和法定人数算法在协作方内部，不在本仓库范围
type Milestones struct {
	mu sync.RWMutex

	clk             clock.Clock
	meetingDeadline time.Time
	meetingTime     *time.Time
	votedNo         map[common.Address]bool
	resultNo        bool
}

// NewMilestones 创建里程碑协作方
func NewMilestones(clk clock.Clock, meetingDeadline time.Time) *Milestones {
	return &Milestones{
		clk:             clk,
		meetingDeadline: meetingDeadline,
		votedNo:         make(map[common.Address]bool),
	}
}

// MeetingTimeSet 当前里程碑是否已设置会议时间
func (m *Milestones) MeetingTimeSet() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.meetingTime != nil
}

// MeetingCreationDeadlinePassed 设置会议时间的期限是否已过
func (m *Milestones) MeetingCreationDeadlinePassed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.clk.Now().Before(m.meetingDeadline)
}

// InvestorVotedNo 投资人是否在当前提案上投了反对票
func (m *Milestones) InvestorVotedNo(investor common.Address) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.votedNo[investor]
}

// VoteResultNo 提案汇总结果是否为反对
func (m *Milestones) VoteResultNo() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.resultNo
}

// SetMeetingTime 设置会议时间
func (m *Milestones) SetMeetingTime(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meetingTime = &t
}

// RecordNoVote 记录一张反对票
func (m *Milestones) RecordNoVote(investor common.Address) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.votedNo[investor] = true
}

// SetVoteResult 记录提案汇总结果
func (m *Milestones) SetVoteResult(no bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resultNo = no
}
