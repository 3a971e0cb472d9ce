package eventbus

type RepositoryEventType string

const (
	RepositoryEventCloned      RepositoryEventType = "Cloned"
	RepositoryEventCloneFailed RepositoryEventType = "CloneFailed"
	RepositoryEventDeleted     RepositoryEventType = "Deleted"
)

type RepositoryEvent struct {
	Type         RepositoryEventType
	RepositoryID uint
	RepoName     string
	LocalPath    string
	Reason       string
}

type RepositoryEventHandler = Handler[RepositoryEvent]
type RepositoryEventBus = Bus[RepositoryEventType, RepositoryEvent]

func NewRepositoryEventBus() *RepositoryEventBus {
	return NewBus[RepositoryEventType, RepositoryEvent]()
}
