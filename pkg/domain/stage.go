package domain

// Stage はリクエスト単位のパイプライン状態です。
type Stage string

const (
	StageRetrieving Stage = "RETRIEVING"
	StageExtracting Stage = "EXTRACTING"
	StageScripting  Stage = "SCRIPTING"
	StageRendering  Stage = "RENDERING"
	StageComposing  Stage = "COMPOSING"
	StageDone       Stage = "DONE"
	StageFailed     Stage = "FAILED"
)

// Terminal は状態が終端かどうかを返します。
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageFailed
}

var nextStage = map[Stage]Stage{
	StageRetrieving: StageExtracting,
	StageExtracting: StageScripting,
	StageScripting:  StageRendering,
	StageRendering:  StageComposing,
	StageComposing:  StageDone,
}

// CanTransitionTo は s から next への遷移が許されるかどうかを返します。
// 工程は一方向にしか進まず、FAILED へは終端以外のどの状態からでも遷移できます。
func (s Stage) CanTransitionTo(next Stage) bool {
	if s.Terminal() {
		return false
	}
	if next == StageFailed {
		return true
	}
	return nextStage[s] == next
}
