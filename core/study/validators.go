package study

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/etudes/core"
	"github.com/trezcool/etudes/core/content"
)

var (
	resourceTypeTag  = "resource_type"
	resourceTypeText = "type must be one of text, pdf, image, audio, video or url"

	fileRequiredTag  = "resource_file"
	fileRequiredText = "a file is required for this resource type"

	noFileTag  = "resource_nofile"
	noFileText = "this resource type cannot carry a file"

	emptyFileTag  = "resource_emptyfile"
	emptyFileText = "the file has not been staged"

	badFileTag  = "resource_badfile"
	badFileText = "the file content cannot be decoded"
)

// InitValidators registers the study validators. core.InitValidators must run first.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(resourceTypeTag, resourceTypeValidation)
	core.RegisterCustomTranslation(validate, translator, resourceTypeTag, resourceTypeText)

	validate.RegisterStructValidation(resourceStructValidation, NewResource{})
	core.RegisterCustomTranslation(validate, translator, fileRequiredTag, fileRequiredText)
	core.RegisterCustomTranslation(validate, translator, noFileTag, noFileText)
	core.RegisterCustomTranslation(validate, translator, emptyFileTag, emptyFileText)
	core.RegisterCustomTranslation(validate, translator, badFileTag, badFileText)
}

func resourceTypeValidation(fl validator.FieldLevel) bool {
	switch typ := fl.Field().Interface().(type) {
	case ResourceType:
		return typ.Valid()
	case string:
		return ResourceType(typ).Valid()
	}
	return false
}

// resourceStructValidation enforces the pairing of resource types and files:
// binary types need a decodable file, text and url never carry one, url descriptions are URLs.
func resourceStructValidation(sl validator.StructLevel) {
	nr, ok := sl.Current().Interface().(NewResource)
	if !ok || !nr.Type.Valid() {
		return
	}
	switch {
	case nr.Type.Binary() && nr.File == nil:
		sl.ReportError(nr.File, "file", "File", fileRequiredTag, "")
	case nr.Type.Binary() && nr.File.DataURL == "":
		sl.ReportError(nr.File, "file", "File", emptyFileTag, "")
	case nr.Type.Binary() && !decodes(nr.File.DataURL):
		sl.ReportError(nr.File, "file", "File", badFileTag, "")
	case !nr.Type.Binary() && nr.File != nil:
		sl.ReportError(nr.File, "file", "File", noFileTag, "")
	}
	if nr.Type == ResourceURL {
		if err := sl.Validator().Var(nr.Description, "required,url"); err != nil {
			tag := "url"
			if nr.Description == "" {
				tag = "required"
			}
			sl.ReportError(nr.Description, "description", "Description", tag, "")
		}
	}
}

func decodes(dataURL string) bool {
	_, err := content.Decode(dataURL)
	return err == nil
}
