package tc

import (
	"archive/zip"
	"io"
	"io/ioutil"
	"path"
	"strings"

	"github.com/pkg/errors"
)

var (
	errDocumentNotFound  = errors.New("document not found in archive")
	errAmbiguousDocument = errors.New("document name matches several archive entries")
)

// archiveResolver exposes named-document lookup over a ZIP stream without
// pre-extracting it. An exact path match wins; failing that, a bare filename
// matches any entry with the same base name, so CSVs may reference documents
// the archive stores under subdirectories. A base name carried by two
// different entries is ambiguous and never resolved.
type archiveResolver struct {
	exact  map[string]*zip.File
	byBase map[string][]*zip.File
}

func newArchiveResolver(r io.ReaderAt, size int64) (*archiveResolver, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, errors.Wrap(err, "opening archive")
	}

	ar := &archiveResolver{
		exact:  make(map[string]*zip.File, len(zr.File)),
		byBase: make(map[string][]*zip.File, len(zr.File)),
	}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := path.Clean(strings.ReplaceAll(f.Name, "\\", "/"))
		ar.exact[name] = f
		base := path.Base(name)
		ar.byBase[base] = append(ar.byBase[base], f)
	}
	return ar, nil
}

// lookup returns the named entry's content. Entries are decoded on demand;
// nothing is retained past the call.
func (ar *archiveResolver) lookup(name string) ([]byte, error) {
	name = path.Clean(strings.ReplaceAll(name, "\\", "/"))

	f, ok := ar.exact[name]
	if !ok {
		matches := ar.byBase[path.Base(name)]
		switch len(matches) {
		case 0:
			return nil, errDocumentNotFound
		case 1:
			f = matches[0]
		default:
			return nil, errAmbiguousDocument
		}
	}

	rc, err := f.Open()
	if err != nil {
		return nil, errors.Wrapf(err, "opening archive entry %q", f.Name)
	}
	defer func() { _ = rc.Close() }()

	data, err := ioutil.ReadAll(rc)
	if err != nil {
		return nil, errors.Wrapf(err, "reading archive entry %q", f.Name)
	}
	return data, nil
}
