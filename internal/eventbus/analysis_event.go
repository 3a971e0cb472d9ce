package eventbus

type AnalysisEventType string

const (
	AnalysisEventCompleted AnalysisEventType = "Completed"
	AnalysisEventFailed    AnalysisEventType = "Failed"
)

type AnalysisEvent struct {
	Type     AnalysisEventType
	RepoName string
	Kind     string // project, endpoints, entities, flows, schema
	Reason   string
}

type AnalysisEventHandler = Handler[AnalysisEvent]
type AnalysisEventBus = Bus[AnalysisEventType, AnalysisEvent]

func NewAnalysisEventBus() *AnalysisEventBus {
	return NewBus[AnalysisEventType, AnalysisEvent]()
}
