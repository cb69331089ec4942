package migrations

import (
	"gorm.io/gorm"
)

// backfillCopyEpochs initializes copy_parameters.copy_epoch for rows created
// before the stored day-boundary column existed. The epoch becomes the UTC
// date of the last copy, so counters carried over from the old string-prefix
// scheme keep their meaning for the remainder of that day.
func backfillCopyEpochs(tx *gorm.DB) error {
	type row struct {
		ID uint
	}

	// Rows without a last copy have nothing to carry over; leave the epoch
	// empty so the counter reads as zero.
	var stale []row
	if err := tx.Table("copy_parameters").
		Where("(copy_epoch IS NULL OR copy_epoch = '') AND last_copy_at IS NOT NULL").
		Select("id").
		Find(&stale).Error; err != nil {
		return err
	}
	if len(stale) == 0 {
		return nil
	}

	return tx.Exec(
		`UPDATE copy_parameters
		 SET copy_epoch = to_char(last_copy_at AT TIME ZONE 'UTC', 'YYYY-MM-DD')
		 WHERE (copy_epoch IS NULL OR copy_epoch = '') AND last_copy_at IS NOT NULL`,
	).Error
}
