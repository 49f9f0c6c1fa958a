package backup

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/etudes/core"
	"github.com/trezcool/etudes/core/study"
)

func init() {
	ScryptWorkFactor = 10
}

func sampleDocument() study.Document {
	ts := core.NewTimestamp(time.Date(2024, 3, 1, 9, 30, 0, 123e6, time.UTC))
	doc := study.NewDocument()
	doc.Subjects = append(doc.Subjects, study.Subject{
		ID:      "s1",
		Name:    "Maths",
		OwnerID: "anna",
		Resources: []study.Resource{{
			ID:          "r1",
			Title:       "Slides",
			Type:        study.ResourcePDF,
			ContentData: null.StringFrom("data:application/pdf;base64,JVBERg=="),
			MimeType:    null.StringFrom("application/pdf"),
			DateAdded:   ts,
			OwnerID:     "anna",
		}, {
			ID:        "r2",
			Title:     "Summary",
			Type:      study.ResourceText,
			DateAdded: ts,
			OwnerID:   "anna",
		}},
		CreatedAt: ts,
	})
	doc.Notes = append(doc.Notes, study.Note{
		ID: "n1", SubjectID: "s1", Content: "Limits", Timestamp: ts, OwnerID: "anna",
		Remarks: []study.Remark{{Content: "Good", AuthorID: "tina", Timestamp: ts}},
	})
	doc.Quizzes = append(doc.Quizzes, study.Quiz{
		ID:    "q1",
		Title: "Basics",
		Questions: []study.Question{{
			ID: "qq1", Question: "1+1?", Options: [4]string{"1", "2", "3", "4"}, CorrectAnswerIndex: 1,
		}},
		CreatedBy: "tina",
		CreatedAt: ts,
		Results: []study.QuizResult{{
			QuizID: "q1", UserID: "anna", Score: 1, TotalQuestions: 1, Percentage: 100,
			CompletedAt: ts, Answers: map[int]int{0: 1},
		}},
	})
	doc.Memory = &study.Memory{Title: "Thesis", Content: "Draft", LastModified: ts, ModifiedBy: "anna", Remarks: []study.Remark{}}
	return doc
}

func toJSON(t *testing.T, v interface{}) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestExportImport(t *testing.T) {
	doc := sampleDocument()

	tests := []struct {
		name       string
		passphrase string
	}{
		{name: "plain"},
		{name: "encrypted", passphrase: "correct horse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buff bytes.Buffer
			if err := Export(&buff, doc, "anna", tt.passphrase); err != nil {
				t.Fatalf("Export() error = %v", err)
			}
			if encrypted := bytes.HasPrefix(buff.Bytes(), ageHeader); encrypted != (tt.passphrase != "") {
				t.Errorf("Export() encrypted = %v", encrypted)
			}

			arch, err := Import(&buff, tt.passphrase)
			if err != nil {
				t.Fatalf("Import() error = %v", err)
			}
			if arch.Version != formatVersion || arch.ExportedBy != "anna" || arch.ExportedAt.IsZero() {
				t.Errorf("Import() archive = %+v", arch)
			}
			if got, want := toJSON(t, arch.Document), toJSON(t, doc); got != want {
				t.Errorf("Import() document =\n%s\nwant\n%s", got, want)
			}
			if arch.Document.Subjects[0].Resources[1].ContentData.Valid {
				t.Error("Import() text resource has content data")
			}
		})
	}
}

func TestExport_deterministic(t *testing.T) {
	core.NowFunc = func() time.Time { return time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC) }
	defer func() { core.NowFunc = time.Now }()

	var a, b bytes.Buffer
	if err := Export(&a, sampleDocument(), "anna", ""); err != nil {
		t.Fatal(err)
	}
	if err := Export(&b, sampleDocument(), "anna", ""); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Error("Export() is not deterministic")
	}
}

func TestImport_errors(t *testing.T) {
	var encrypted bytes.Buffer
	if err := Export(&encrypted, sampleDocument(), "anna", "secret words"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		data       []byte
		passphrase string
		wantErr    error
	}{
		{name: "missing passphrase", data: encrypted.Bytes(), wantErr: ErrPassphraseRequired},
		{name: "wrong passphrase", data: encrypted.Bytes(), passphrase: "other words", wantErr: ErrWrongPassphrase},
		{name: "garbage", data: []byte("not a backup"), wantErr: ErrCorrupt},
		{name: "empty", data: nil, wantErr: ErrCorrupt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Import(bytes.NewReader(tt.data), tt.passphrase)
			if errors.Cause(err) != tt.wantErr {
				t.Errorf("Import() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestImport_version(t *testing.T) {
	data, err := encMode.Marshal(Archive{Version: formatVersion + 1, Document: study.NewDocument()})
	if err != nil {
		t.Fatal(err)
	}
	_, err = Import(bytes.NewReader(zstdEncoder.EncodeAll(data, nil)), "")
	if errors.Cause(err) != ErrUnsupportedVersion {
		t.Errorf("Import() error = %v, want %v", err, ErrUnsupportedVersion)
	}
}
