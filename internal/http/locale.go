package http

import (
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"
)

type locale int

const (
	localeEnglish locale = iota
	localeFrench
)

var localeMatcher = language.NewMatcher([]language.Tag{language.English, language.French})

func localeFromRequest(c *gin.Context) locale {
	header := c.GetHeader("Accept-Language")
	if header == "" {
		return localeEnglish
	}
	tag, _ := language.MatchStrings(localeMatcher, header)
	if base, _ := tag.Base(); base.String() == "fr" {
		return localeFrench
	}
	return localeEnglish
}

type messageKey string

const (
	msgBadRequest         messageKey = "bad_request"
	msgInvalidBody        messageKey = "invalid_body"
	msgInvalidTimestamp   messageKey = "invalid_timestamp"
	msgUnauthorized       messageKey = "unauthorized"
	msgInvalidToken       messageKey = "invalid_token"
	msgForbidden          messageKey = "forbidden"
	msgNotFound           messageKey = "not_found"
	msgAlreadyExists      messageKey = "already_exists"
	msgValidationFailed   messageKey = "validation_failed"
	msgScheduleConflict   messageKey = "schedule_conflict"
	msgDoubleBooking      messageKey = "double_booking"
	msgOpenWorkSession    messageKey = "open_work_session"
	msgScheduleValidation messageKey = "schedule_validation_failed"
	msgInternal           messageKey = "internal"
)

var messages = map[messageKey][2]string{
	msgBadRequest:         {"The request is invalid.", "La requête est invalide."},
	msgInvalidBody:        {"The request body is not valid JSON.", "Le corps de la requête n'est pas un JSON valide."},
	msgInvalidTimestamp:   {"The timestamp must be RFC 3339.", "L'horodatage doit respecter le format RFC 3339."},
	msgUnauthorized:       {"Authentication is required.", "Une authentification est requise."},
	msgInvalidToken:       {"The access token is invalid or expired.", "Le jeton d'accès est invalide ou expiré."},
	msgForbidden:          {"You are not allowed to perform this action.", "Vous n'êtes pas autorisé à effectuer cette action."},
	msgNotFound:           {"The requested resource was not found.", "La ressource demandée est introuvable."},
	msgAlreadyExists:      {"The resource already exists.", "La ressource existe déjà."},
	msgValidationFailed:   {"Some fields are invalid.", "Certains champs sont invalides."},
	msgScheduleConflict:   {"Some employees are already booked on these dates.", "Certains employés sont déjà affectés à ces dates."},
	msgDoubleBooking:      {"Employees cannot be booked twice on the same day.", "Un employé ne peut pas être affecté deux fois le même jour."},
	msgOpenWorkSession:    {"The employee is already clocked in.", "L'employé a déjà pointé son arrivée."},
	msgScheduleValidation: {"Could not validate the schedule. Nothing was saved.", "Impossible de valider le planning. Rien n'a été enregistré."},
	msgInternal:           {"An internal error occurred.", "Une erreur interne s'est produite."},
}

func (l locale) message(key messageKey) string {
	entry, ok := messages[key]
	if !ok {
		entry = messages[msgInternal]
	}
	return entry[l]
}

var frenchValidationMessages = map[string]string{
	"name is required":                       "Le nom est obligatoire.",
	"title is required":                      "Le titre est obligatoire.",
	"timezone must be an IANA zone name":     "Le fuseau horaire doit être un nom IANA.",
	"project_id is required":                 "Le projet est obligatoire.",
	"project not found":                      "Projet introuvable.",
	"at least one employee is required":      "Au moins un employé est requis.",
	"start_date is required":                 "La date de début est obligatoire.",
	"end_date is required":                   "La date de fin est obligatoire.",
	"date is required":                       "La date est obligatoire.",
	"start_date must be a YYYY-MM-DD date":   "La date de début doit être au format AAAA-MM-JJ.",
	"end_date must be a YYYY-MM-DD date":     "La date de fin doit être au format AAAA-MM-JJ.",
	"from must be a YYYY-MM-DD date":         "La date de début de période doit être au format AAAA-MM-JJ.",
	"to must be a YYYY-MM-DD date":           "La date de fin de période doit être au format AAAA-MM-JJ.",
	"date must be a YYYY-MM-DD date":         "La date doit être au format AAAA-MM-JJ.",
	"end_date must not be before start_date": "La date de fin ne peut pas précéder la date de début.",
	"to must not be before from":             "La fin de période ne peut pas précéder son début.",
	"employee_id is required":                "L'employé est obligatoire.",
	"employee not found":                     "Employé introuvable.",
	"work session already ended":             "Cette session de travail est déjà terminée.",
	"end must not be before start":           "La fin ne peut pas précéder le début.",
	"related records are missing":            "Des enregistrements liés sont manquants.",
	"record violates a storage constraint":   "L'enregistrement viole une contrainte de stockage.",
}

func (l locale) validationMessage(message string) string {
	if l != localeFrench {
		return message
	}
	if translated, ok := frenchValidationMessages[message]; ok {
		return translated
	}
	if rest, ok := strings.CutPrefix(message, "unknown employee ids:"); ok {
		return "Identifiants d'employés inconnus :" + rest
	}
	return message
}
