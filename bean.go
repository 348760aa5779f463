package oioproxy

import "encoding/json"

// BeanKind tags a Bean's concrete type: alias, header, content, or
// chunk, the four record types the container service emits (spec §9
// Design Notes: "Bean polymorphism... maps naturally to a tagged
// variant with four cases and a single format_json(writer) dispatch").
type BeanKind int

const (
	BeanAlias BeanKind = iota
	BeanHeader
	BeanContent
	BeanChunk
)

// AliasBean names one version of an object within a container.
type AliasBean struct {
	Name    string `json:"name"`
	Version int64  `json:"version"`
	Header  string `json:"header"`
	Deleted bool   `json:"deleted"`
	MTime   int64  `json:"mtime"`
}

// HeaderBean is the content-wide metadata shared by every chunk of one
// object version.
type HeaderBean struct {
	ID          string `json:"id"`
	Size        int64  `json:"size"`
	Hash        string `json:"hash"`
	CTime       int64  `json:"ctime"`
	Policy      string `json:"policy"`
	ChunkMethod string `json:"chunk-method"`
	MimeType    string `json:"mime-type"`
}

// ContentBean describes one metachunk (a position within an object).
type ContentBean struct {
	Path    string `json:"path"`
	Version int64  `json:"version"`
	Pos     string `json:"pos"`
	Hash    string `json:"hash"`
	Size    int64  `json:"size"`
}

// ChunkBean is a single physical chunk placement on a rawx backend.
type ChunkBean struct {
	URL  string `json:"url"`
	Pos  string `json:"pos"`
	Size int64  `json:"size"`
	Hash string `json:"hash"`
}

// Bean is the opaque tagged record emitted by the container service.
// Only one of the pointer fields is set, as selected by Kind; MarshalJSON
// dispatches on Kind the way the original bean pointer-to-descriptor tag
// does.
type Bean struct {
	Kind    BeanKind
	Alias   *AliasBean
	Header  *HeaderBean
	Content *ContentBean
	Chunk   *ChunkBean
}

func (b Bean) MarshalJSON() ([]byte, error) {
	switch b.Kind {
	case BeanAlias:
		return json.Marshal(b.Alias)
	case BeanHeader:
		return json.Marshal(b.Header)
	case BeanContent:
		return json.Marshal(b.Content)
	case BeanChunk:
		return json.Marshal(b.Chunk)
	default:
		return []byte("null"), nil
	}
}

// BeanList groups beans by kind the way the /m2/container and
// /m2/content handlers return them: aliases, headers, contents, chunks
// (spec §8 scenario E1: "response payload has keys aliases, headers,
// contents, chunks (... may be empty arrays)").
type BeanList struct {
	Aliases  []AliasBean   `json:"aliases"`
	Headers  []HeaderBean  `json:"headers"`
	Contents []ContentBean `json:"contents"`
	Chunks   []ChunkBean   `json:"chunks"`
}

// NewBeanList returns a BeanList with every slice initialized to empty
// (never nil), so JSON serializes them as `[]` rather than `null`.
func NewBeanList() BeanList {
	return BeanList{
		Aliases:  []AliasBean{},
		Headers:  []HeaderBean{},
		Contents: []ContentBean{},
		Chunks:   []ChunkBean{},
	}
}

// ContainerListing is the reply payload for GET /m2/container: the
// addressed URL alongside its bean lists, flattened into one JSON object
// (spec §8 scenario E3: "response payload has keys URL, aliases,
// headers, contents, chunks"), grounded in the source's
// _json_dump_all_beans (_append_status + _append_url + bean dump, all
// inside one object).
type ContainerListing struct {
	URL URLSummary `json:"URL"`
	BeanList
}
