package eventbus

type ExportEventType string

const (
	ExportEventCreated   ExportEventType = "Created"
	ExportEventPublished ExportEventType = "Published"
)

type ExportEvent struct {
	Type         ExportEventType
	RepositoryID uint
	RepoName     string
	Format       string // markdown, features_zip, confluence
	Filename     string
	Target       string
}

type ExportEventHandler = Handler[ExportEvent]
type ExportEventBus = Bus[ExportEventType, ExportEvent]

func NewExportEventBus() *ExportEventBus {
	return NewBus[ExportEventType, ExportEvent]()
}
