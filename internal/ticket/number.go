package ticket

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SequentialNumber формирует номер билета вида L<лотерея>-<порядковый номер>.
func SequentialNumber(lotteryID, seq int64) string {
	return fmt.Sprintf("L%d-%06d", lotteryID, seq)
}

// RandomNumber формирует номер билета для ручного ввода: время выдачи и случайный суффикс.
func RandomNumber(lotteryID int64, now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("M%d-%s-%s", lotteryID, now.UTC().Format("20060102150405"), suffix)
}

// Sequence выдаёт последовательные номера билетов в рамках одного импорта.
// Начальное значение должно быть прочитано в той же транзакции, что и вставка билетов.
type Sequence struct {
	lotteryID int64
	last      int64
}

// NewSequence создаёт последовательность, продолжающую уже выданные issued билетов.
func NewSequence(lotteryID, issued int64) *Sequence {
	return &Sequence{lotteryID: lotteryID, last: issued}
}

// Next возвращает следующий номер билета.
func (s *Sequence) Next() string {
	s.last++
	return SequentialNumber(s.lotteryID, s.last)
}

// Issued возвращает номер последнего выданного билета.
func (s *Sequence) Issued() int64 {
	return s.last
}
