package archive

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const pdfMimeType = "application/pdf"

// DriveStore is an ObjectStore backed by a Google Drive folder, accessed with
// a service account key.
type DriveStore struct {
	credentialsFile string
	opts            []option.ClientOption
	logger          *zap.Logger

	mu  sync.Mutex
	svc *drive.Service
}

var _ ObjectStore = (*DriveStore)(nil)

// NewDriveStore creates a DriveStore. Authorization happens on first use.
// With an empty credentialsFile the client options alone configure access.
func NewDriveStore(credentialsFile string, logger *zap.Logger, opts ...option.ClientOption) *DriveStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DriveStore{credentialsFile: credentialsFile, opts: opts, logger: logger}
}

// service authorizes once and caches the Drive client.
func (s *DriveStore) service(ctx context.Context) (*drive.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.svc != nil {
		return s.svc, nil
	}

	// The client outlives the call that created it.
	ctx = context.WithoutCancel(ctx)
	opts := append([]option.ClientOption{}, s.opts...)
	if s.credentialsFile != "" {
		key, err := os.ReadFile(s.credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("%w: read credentials: %v", ErrAuthorize, err)
		}
		conf, err := google.JWTConfigFromJSON(key, drive.DriveScope)
		if err != nil {
			return nil, fmt.Errorf("%w: parse credentials: %v", ErrAuthorize, err)
		}
		ts := conf.TokenSource(ctx)
		if _, err := ts.Token(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAuthorize, err)
		}
		s.logger.Debug("archive authorized", zap.String("account", conf.Email))
		opts = append(opts, option.WithTokenSource(ts))
	}

	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: create drive client: %v", ErrAuthorize, err)
	}
	s.svc = svc
	return svc, nil
}

// ListObjects lists non-trashed files of folder whose name contains prefix,
// newest first, following every result page.
func (s *DriveStore) ListObjects(ctx context.Context, folder, prefix string) ([]string, error) {
	svc, err := s.service(ctx)
	if err != nil {
		return nil, err
	}

	clauses := []string{"trashed = false"}
	if folder != "" {
		clauses = append(clauses, fmt.Sprintf("'%s' in parents", quote(folder)))
	}
	if prefix != "" {
		clauses = append(clauses, fmt.Sprintf("name contains '%s'", quote(prefix)))
	}

	names := []string{}
	err = svc.Files.List().
		Q(strings.Join(clauses, " and ")).
		OrderBy("createdTime desc").
		Fields("nextPageToken, files(id, name)").
		PageSize(100).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Pages(ctx, func(page *drive.FileList) error {
			for _, f := range page.Files {
				names = append(names, f.Name)
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrList, err)
	}
	return names, nil
}

// UploadObject uploads localPath as a PDF named name into folder.
func (s *DriveStore) UploadObject(ctx context.Context, folder, name, localPath string) error {
	svc, err := s.service(ctx)
	if err != nil {
		return err
	}

	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	meta := &drive.File{Name: name, MimeType: pdfMimeType}
	if folder != "" {
		meta.Parents = []string{folder}
	}
	created, err := svc.Files.Create(meta).
		Media(f, googleapi.ContentType(pdfMimeType)).
		SupportsAllDrives(true).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return err
	}
	s.logger.Debug("object uploaded", zap.String("name", name), zap.String("id", created.Id))
	return nil
}

// quote escapes a value for a Drive query string literal.
func quote(v string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v)
}
