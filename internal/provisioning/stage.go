package provisioning

// Stage is a state of the install state machine.
type Stage int

const (
	StageCheckingEnvironment Stage = iota
	StageCheckingPrivilege
	StageProvisioningTools
	StageInstallingRuntime
	StageInstallingGlobalDeps
	StageResolvingIdentity
	StageFetchingRelease
	StageConfiguringCore
	StageConfiguringServer
	StageStartingSupervisor
	StageDone
	StageAborted
)

var stageNames = [...]string{
	StageCheckingEnvironment:  "CheckingEnvironment",
	StageCheckingPrivilege:    "CheckingPrivilege",
	StageProvisioningTools:    "ProvisioningTools",
	StageInstallingRuntime:    "InstallingRuntime",
	StageInstallingGlobalDeps: "InstallingGlobalDeps",
	StageResolvingIdentity:    "ResolvingIdentity",
	StageFetchingRelease:      "FetchingRelease",
	StageConfiguringCore:      "ConfiguringCore",
	StageConfiguringServer:    "ConfiguringServer",
	StageStartingSupervisor:   "StartingSupervisor",
	StageDone:                 "Done",
	StageAborted:              "Aborted",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "Unknown"
	}
	return stageNames[s]
}

// Terminal reports whether no transition leaves s.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageAborted
}
