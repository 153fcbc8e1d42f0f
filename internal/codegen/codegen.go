package codegen

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	dbpkg "github.com/salonci/salon-pos/internal/db"
	"github.com/salonci/salon-pos/internal/httperr"
	"github.com/salonci/salon-pos/internal/models"
)

// Portée du compteur des codes clients. Le compteur est global sur
// l'historique complet, seul le suffixe change d'année en année.
const ClientCodeScope = "client_code"

var clientCodeRe = regexp.MustCompile(`^C(\d{3})-(\d{2})$`)

// FormatClientCode produit un code C###-YY.
func FormatClientCode(seq int, year int) string {
	return fmt.Sprintf("C%03d-%02d", seq, year%100)
}

// ParseClientCode extrait la composante numérique d'un code C###-YY.
func ParseClientCode(code string) (seq int, year int, ok bool) {
	m := clientCodeRe.FindStringSubmatch(code)
	if m == nil {
		return 0, 0, false
	}
	seq, _ = strconv.Atoi(m[1])
	year, _ = strconv.Atoi(m[2])
	return seq, year, true
}

// NextClientCode réserve le prochain code client dans la transaction donnée.
// La ligne de séquence est verrouillée : deux créations concurrentes
// sérialisent ici au lieu de recalculer le même max().
func NextClientCode(tx *gorm.DB, now time.Time) (string, error) {
	seq, err := nextSequenceValue(tx, ClientCodeScope)
	if err != nil {
		return "", err
	}
	if seq > 999 {
		return "", httperr.GenerationExhausted("client_code_exhausted",
			"Plus de codes clients disponibles.")
	}
	return FormatClientCode(seq, now.Year()), nil
}

// PreviewClientCode calcule le prochain code sans le réserver
// (endpoint generate-code, utilisé par le client mobile en saisie).
// NextVal porte le dernier numéro attribué : le prochain libre est NextVal+1.
func PreviewClientCode(db *gorm.DB, now time.Time) (string, error) {
	var row models.CodeSequence
	err := db.Where("scope = ?", ClientCodeScope).First(&row).Error
	switch {
	case err == nil:
		return FormatClientCode(row.NextVal+1, now.Year()), nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		max, serr := maxExistingClientCode(db)
		if serr != nil {
			return "", httperr.Storage(serr)
		}
		return FormatClientCode(max+1, now.Year()), nil
	default:
		return "", httperr.Storage(err)
	}
}

// nextSequenceValue incrémente et retourne la valeur courante du compteur.
// NextVal porte toujours le dernier numéro attribué. Au premier appel la
// ligne est semée depuis le max observé dans l'historique complet des codes,
// toutes années confondues ; deux amorçages concurrents se résolvent par
// ON CONFLICT DO NOTHING, le perdant relit la ligne du gagnant sous verrou.
func nextSequenceValue(tx *gorm.DB, scope string) (int, error) {
	var row models.CodeSequence
	err := dbpkg.LockForUpdate(tx).Where("scope = ?", scope).First(&row).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		max, serr := maxExistingClientCode(tx)
		if serr != nil {
			return 0, httperr.Storage(serr)
		}
		seed := models.CodeSequence{Scope: scope, NextVal: max}
		if cerr := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&seed).Error; cerr != nil {
			return 0, httperr.Storage(cerr)
		}
		if lerr := dbpkg.LockForUpdate(tx).Where("scope = ?", scope).
			First(&row).Error; lerr != nil {
			return 0, httperr.Storage(lerr)
		}
	} else if err != nil {
		return 0, httperr.Storage(err)
	}

	row.NextVal++
	if uerr := tx.Model(&models.CodeSequence{}).
		Where("scope = ?", scope).
		Update("next_val", row.NextVal).Error; uerr != nil {
		return 0, httperr.Storage(uerr)
	}
	return row.NextVal, nil
}

func maxExistingClientCode(tx *gorm.DB) (int, error) {
	var codes []string
	if err := tx.Model(&models.Client{}).
		Unscoped().
		Where("code_client LIKE ?", "C%").
		Pluck("code_client", &codes).Error; err != nil {
		return 0, err
	}

	max := 0
	for _, code := range codes {
		if seq, _, ok := ParseClientCode(code); ok && seq > max {
			max = seq
		}
	}
	return max, nil
}

// NewReceiptNumber forme REC-YYYYMMDD-XXXXXX. L'unicité est garantie par la
// contrainte en base : une collision remonte en conflit, jamais régénérée.
func NewReceiptNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
	return fmt.Sprintf("REC-%s-%s", now.Format("20060102"), suffix)
}
