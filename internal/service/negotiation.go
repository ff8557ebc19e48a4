package service

import "github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/model"

// NegotiationPhase 协商所处阶段
type NegotiationPhase int

const (
	PhasePending NegotiationPhase = iota
	PhaseConfirmed
	PhaseRejected
)

// NegotiationState 由双方状态推导出的协商状态。
// 仅 PhaseRejected 时 RejectedBy 有值（teacher 或 student）。
type NegotiationState struct {
	Phase      NegotiationPhase
	RejectedBy string
}

// StateOf 根据双方状态推导协商状态，拒绝优先于确认
func StateOf(teacherStatus, studentStatus string) NegotiationState {
	switch {
	case teacherStatus == model.CoopRejected:
		return NegotiationState{Phase: PhaseRejected, RejectedBy: model.PartyTeacher}
	case studentStatus == model.CoopRejected:
		return NegotiationState{Phase: PhaseRejected, RejectedBy: model.PartyStudent}
	case teacherStatus == model.CoopAccepted && studentStatus == model.CoopAccepted:
		return NegotiationState{Phase: PhaseConfirmed}
	default:
		return NegotiationState{Phase: PhasePending}
	}
}

// StateOfRequest 推导请求当前协商状态
func StateOfRequest(req *model.CooperationRequest) NegotiationState {
	return StateOf(req.TeacherStatus, req.StudentStatus)
}

// FinalStatus 持久化使用的 final_status 取值（不会产生 accepted）
func (s NegotiationState) FinalStatus() string {
	switch s.Phase {
	case PhaseConfirmed:
		return model.CoopConfirmed
	case PhaseRejected:
		return model.CoopRejected
	default:
		return model.CoopPending
	}
}

// Terminal 已确认或已拒绝
func (s NegotiationState) Terminal() bool {
	return s.Phase != PhasePending
}

// initialSides 发起方视为已同意，另一方待处理
func initialSides(initiator string) (teacherStatus, studentStatus string) {
	if initiator == model.PartyTeacher {
		return model.CoopAccepted, model.CoopPending
	}
	return model.CoopPending, model.CoopAccepted
}

// partyOf 返回用户在请求中的身份，非参与方返回空串
func partyOf(req *model.CooperationRequest, userID uint) string {
	switch userID {
	case req.TeacherUserID:
		return model.PartyTeacher
	case req.StudentUserID:
		return model.PartyStudent
	default:
		return ""
	}
}

// applyResponse 记录一方的处理结果并重算 final_status，返回新状态。
// 发起方在创建时已同意，对方接受只会改动对方自己这一侧。
func applyResponse(req *model.CooperationRequest, party string, accept bool) NegotiationState {
	status := model.CoopRejected
	if accept {
		status = model.CoopAccepted
	}
	if party == model.PartyTeacher {
		req.TeacherStatus = status
	} else {
		req.StudentStatus = status
	}
	state := StateOfRequest(req)
	req.FinalStatus = state.FinalStatus()
	return state
}
