package backup

import (
	"bytes"
	"io"

	"filippo.io/age"
	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	"github.com/trezcool/etudes/core"
	"github.com/trezcool/etudes/core/study"
)

// formatVersion is bumped whenever the archive layout changes.
const formatVersion = 1

// ageHeader starts every age-encrypted archive.
var ageHeader = []byte("age-encryption.org/")

var (
	// errors
	ErrPassphraseRequired = errors.New("backup is encrypted: a passphrase is required")
	ErrWrongPassphrase    = errors.New("wrong backup passphrase")
	ErrUnsupportedVersion = errors.New("unsupported backup version")
	ErrCorrupt            = errors.New("backup is corrupt")

	ScryptWorkFactor = 18 // mockable
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode

	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error

	encOpts := cbor.CoreDetEncOptions()
	encOpts.TextMarshaler = cbor.TextMarshalerTextString // core.Timestamp, null.String
	encOpts.NilContainers = cbor.NilContainerAsEmpty
	if encMode, err = encOpts.EncMode(); err != nil {
		panic("backup: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{TextUnmarshaler: cbor.TextUnmarshalerTextString}.DecMode()
	if err != nil {
		panic("backup: CBOR decoder initialization failed: " + err.Error())
	}

	if zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault)); err != nil {
		panic("backup: zstd encoder initialization failed: " + err.Error())
	}
	if zstdDecoder, err = zstd.NewReader(nil); err != nil {
		panic("backup: zstd decoder initialization failed: " + err.Error())
	}
}

// Archive is the content of a backup.
type Archive struct {
	Version    int            `cbor:"version"`
	ExportedAt core.Timestamp `cbor:"exportedAt"`
	ExportedBy string         `cbor:"exportedBy"`
	Document   study.Document `cbor:"document"`
}

// Export writes doc to w as zstd-compressed CBOR, encrypted with passphrase unless it is empty.
func Export(w io.Writer, doc study.Document, exportedBy, passphrase string) error {
	data, err := encMode.Marshal(Archive{
		Version:    formatVersion,
		ExportedAt: core.Now(),
		ExportedBy: exportedBy,
		Document:   doc,
	})
	if err != nil {
		return errors.Wrap(err, "encoding backup")
	}
	data = zstdEncoder.EncodeAll(data, nil)

	if passphrase == "" {
		_, err = w.Write(data)
		return errors.Wrap(err, "writing backup")
	}

	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return errors.Wrap(err, "creating backup recipient")
	}
	recipient.SetWorkFactor(ScryptWorkFactor)
	aw, err := age.Encrypt(w, recipient)
	if err != nil {
		return errors.Wrap(err, "creating backup encryptor")
	}
	if _, err := aw.Write(data); err != nil {
		return errors.Wrap(err, "writing backup")
	}
	return errors.Wrap(aw.Close(), "finalizing backup encryption")
}

// Import reads a backup written by Export.
func Import(r io.Reader, passphrase string) (Archive, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Archive{}, errors.Wrap(err, "reading backup")
	}

	if bytes.HasPrefix(data, ageHeader) {
		if passphrase == "" {
			return Archive{}, ErrPassphraseRequired
		}
		if data, err = decrypt(data, passphrase); err != nil {
			return Archive{}, err
		}
	}

	if data, err = zstdDecoder.DecodeAll(data, nil); err != nil {
		return Archive{}, errors.Wrap(ErrCorrupt, err.Error())
	}
	var arch Archive
	if err := decMode.Unmarshal(data, &arch); err != nil {
		return Archive{}, errors.Wrap(ErrCorrupt, err.Error())
	}
	if arch.Version != formatVersion {
		return Archive{}, errors.Wrapf(ErrUnsupportedVersion, "version %d", arch.Version)
	}
	return arch, nil
}

func decrypt(data []byte, passphrase string) ([]byte, error) {
	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, errors.Wrap(err, "creating backup identity")
	}
	ar, err := age.Decrypt(bytes.NewReader(data), identity)
	if err != nil {
		var noMatch *age.NoIdentityMatchError
		if errors.As(err, &noMatch) {
			return nil, ErrWrongPassphrase
		}
		return nil, errors.Wrap(ErrCorrupt, err.Error())
	}
	plain, err := io.ReadAll(ar)
	if err != nil {
		return nil, errors.Wrap(ErrCorrupt, err.Error())
	}
	return plain, nil
}
