// Package classifier maps filesystem entries to categories. Classification is
// a pure function of the entry's path, name and size.
package classifier

import (
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/fenilsonani/junk-sweeper/pkg/utils"
)

// DefaultLargeFileThreshold is the size from which an unrecognised file is
// reported as a large file
const DefaultLargeFileThreshold = 10 * utils.MB

// Meta is the metadata the caller already read for an entry
type Meta struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Rules holds the heuristics used for junk detection and size bucketing
type Rules struct {
	CacheDirNames      []string
	LogExtensions      []string
	TempExtensions     []string
	TempPrefixes       []string
	InstalledAppDirs   []string
	LargeFileThreshold int64
}

// DefaultRules returns the built-in rule set
func DefaultRules() Rules {
	return Rules{
		CacheDirNames: []string{
			"cache",
			".cache",
			"caches",
			"code_cache",
			".thumbnails",
		},
		LogExtensions:  []string{".log", ".log.gz", ".trace"},
		TempExtensions: []string{".tmp", ".temp", ".bak", ".swp", ".part", ".crdownload"},
		TempPrefixes:   []string{"~$", ".~"},
		InstalledAppDirs: []string{
			"/data/app",
			"/system/app",
			"/system/priv-app",
		},
		LargeFileThreshold: DefaultLargeFileThreshold,
	}
}

var mediaExtensions = map[string]CategoryID{
	".jpg": Images, ".jpeg": Images, ".png": Images, ".gif": Images, ".webp": Images,
	".heic": Images, ".heif": Images, ".bmp": Images, ".dng": Images,
	".mp4": Videos, ".mkv": Videos, ".mov": Videos, ".avi": Videos, ".3gp": Videos,
	".webm": Videos, ".m4v": Videos,
	".mp3": Audio, ".m4a": Audio, ".aac": Audio, ".flac": Audio, ".wav": Audio,
	".ogg": Audio, ".opus": Audio, ".amr": Audio,
	".pdf": Documents, ".doc": Documents, ".docx": Documents, ".xls": Documents,
	".xlsx": Documents, ".ppt": Documents, ".pptx": Documents, ".txt": Documents,
	".epub": Documents, ".odt": Documents, ".csv": Documents,
	".zip": Archives, ".rar": Archives, ".7z": Archives, ".tar": Archives,
	".gz": Archives, ".tgz": Archives, ".bz2": Archives, ".xz": Archives,
}

// Classifier classifies entries with a fixed rule set
type Classifier struct {
	rules      Rules
	cacheDirs  map[string]struct{}
	logExts    []string
	tempExts   []string
	appDirs    []string
	largeBytes int64
}

// New creates a Classifier. Empty rule lists fall back to the defaults.
func New(rules Rules) *Classifier {
	def := DefaultRules()
	if len(rules.CacheDirNames) == 0 {
		rules.CacheDirNames = def.CacheDirNames
	}
	if len(rules.LogExtensions) == 0 {
		rules.LogExtensions = def.LogExtensions
	}
	if len(rules.TempExtensions) == 0 {
		rules.TempExtensions = def.TempExtensions
	}
	if len(rules.TempPrefixes) == 0 {
		rules.TempPrefixes = def.TempPrefixes
	}
	if len(rules.InstalledAppDirs) == 0 {
		rules.InstalledAppDirs = def.InstalledAppDirs
	}
	if rules.LargeFileThreshold <= 0 {
		rules.LargeFileThreshold = def.LargeFileThreshold
	}

	c := &Classifier{
		rules:      rules,
		cacheDirs:  make(map[string]struct{}, len(rules.CacheDirNames)),
		largeBytes: rules.LargeFileThreshold,
	}
	for _, name := range rules.CacheDirNames {
		c.cacheDirs[strings.ToLower(name)] = struct{}{}
	}
	for _, ext := range rules.LogExtensions {
		c.logExts = append(c.logExts, strings.ToLower(ext))
	}
	for _, ext := range rules.TempExtensions {
		c.tempExts = append(c.tempExts, strings.ToLower(ext))
	}
	for _, dir := range rules.InstalledAppDirs {
		c.appDirs = append(c.appDirs, path.Clean(filepath.ToSlash(dir)))
	}
	return c
}

// Rules returns the effective rule set
func (c *Classifier) Rules() Rules {
	return c.rules
}

// Classify returns the category for m. Junk markers win over media types,
// media types over the large-file bucket, and everything else is Other.
func (c *Classifier) Classify(m Meta) CategoryID {
	p := filepath.ToSlash(m.Path)
	name := m.Name
	if name == "" {
		name = path.Base(p)
	}
	lower := strings.ToLower(name)

	if id, ok := c.junkType(p, lower); ok {
		return id
	}

	if id, ok := mediaExtensions[extension(lower)]; ok {
		return id
	}

	if m.Size >= c.largeBytes {
		return LargeFiles
	}

	return Other
}

// IsLarge reports whether size reaches the large-file threshold
func (c *Classifier) IsLarge(size int64) bool {
	return size >= c.largeBytes
}

func (c *Classifier) junkType(p, lowerName string) (CategoryID, bool) {
	dir := path.Dir(p)
	for _, part := range strings.Split(strings.ToLower(dir), "/") {
		if _, ok := c.cacheDirs[part]; ok {
			return AppCache, true
		}
	}

	for _, ext := range c.logExts {
		if strings.HasSuffix(lowerName, ext) {
			return LogFiles, true
		}
	}
	// Rotated logs: app.log.1, app.log.2.gz
	if strings.Contains(lowerName, ".log.") {
		return LogFiles, true
	}

	for _, ext := range c.tempExts {
		if strings.HasSuffix(lowerName, ext) {
			return TempFiles, true
		}
	}
	for _, prefix := range c.rules.TempPrefixes {
		if strings.HasPrefix(lowerName, prefix) {
			return TempFiles, true
		}
	}

	if strings.HasSuffix(lowerName, ".apk") && !c.inInstalledAppDir(p) {
		return ApkFiles, true
	}

	return "", false
}

func (c *Classifier) inInstalledAppDir(p string) bool {
	for _, dir := range c.appDirs {
		if p == dir || strings.HasPrefix(p, dir+"/") {
			return true
		}
	}
	return false
}

// MediaType returns the media category of a file name, or "" if none
func MediaType(name string) CategoryID {
	return mediaExtensions[extension(strings.ToLower(name))]
}

// IsImage reports whether name has an image extension
func IsImage(name string) bool {
	return MediaType(name) == Images
}

func extension(lowerName string) string {
	return path.Ext(lowerName)
}

// FileType is the coarse type used by the file list filter
type FileType string

const (
	TypeAny      FileType = ""
	TypeImage    FileType = "Image"
	TypeVideo    FileType = "Video"
	TypeAudio    FileType = "Audio"
	TypeDocs     FileType = "Docs"
	TypeDownload FileType = "Download"
	TypeZip      FileType = "Zip"
)

var mediaFileTypes = map[CategoryID]FileType{
	Images:    TypeImage,
	Videos:    TypeVideo,
	Audio:     TypeAudio,
	Documents: TypeDocs,
	Archives:  TypeZip,
}

// FileTypeOf returns the extension-based file type of p, or TypeAny when
// the extension is not recognised
func FileTypeOf(p string) FileType {
	return mediaFileTypes[MediaType(path.Base(filepath.ToSlash(p)))]
}

// MatchesType reports whether p has file type t. TypeDownload matches any
// file below a Download or Downloads directory, whatever its extension.
func MatchesType(p string, t FileType) bool {
	switch t {
	case TypeAny:
		return true
	case TypeDownload:
		return inDownloads(p)
	default:
		return FileTypeOf(p) == t
	}
}

func inDownloads(p string) bool {
	dir := path.Dir(filepath.ToSlash(p))
	for _, part := range strings.Split(dir, "/") {
		switch strings.ToLower(part) {
		case "download", "downloads":
			return true
		}
	}
	return false
}
