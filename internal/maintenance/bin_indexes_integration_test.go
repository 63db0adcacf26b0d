// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcoTrack Contributors

//go:build integration

package maintenance_test

import (
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/OpenshelfTeam/EcoTrack-sub003/internal/maintenance"
	"github.com/OpenshelfTeam/EcoTrack-sub003/pkg/errutil"
)

var _ = Describe("RepairBinIndexes", func() {
	BeforeEach(func() {
		resetSchema()
	})

	It("replaces the legacy constraints with partial unique indexes", func() {
		Expect(indexNames()).To(ContainElements("bin_records_qr_code_key", "bin_records_rfid_tag_key"))

		report, err := maintenance.RepairBinIndexes(env.ctx, env.pool, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Dropped).To(Equal([]string{"bin_records_qr_code_key", "bin_records_rfid_tag_key"}))
		Expect(report.Created).To(Equal([]string{"bin_records_qr_code_sparse_key", "bin_records_rfid_tag_sparse_key"}))

		names := indexNames()
		Expect(names).NotTo(ContainElements("bin_records_qr_code_key", "bin_records_rfid_tag_key"))
		Expect(names).To(ContainElements("bin_records_qr_code_sparse_key", "bin_records_rfid_tag_sparse_key"))
	})

	It("allows many bins without identifiers but still rejects duplicates", func() {
		_, err := maintenance.RepairBinIndexes(env.ctx, env.pool, nil)
		Expect(err).NotTo(HaveOccurred())

		Expect(insertBin("bin-1", nil, nil)).To(Succeed())
		Expect(insertBin("bin-2", nil, nil)).To(Succeed())
		Expect(insertBin("bin-3", ptr("QR-1"), nil)).To(Succeed())
		Expect(insertBin("bin-4", ptr("QR-1"), nil)).To(HaveOccurred())
		Expect(insertBin("bin-5", nil, ptr("RFID-1"))).To(Succeed())
		Expect(insertBin("bin-6", nil, ptr("RFID-1"))).To(HaveOccurred())
	})

	It("is idempotent", func() {
		_, err := maintenance.RepairBinIndexes(env.ctx, env.pool, nil)
		Expect(err).NotTo(HaveOccurred())

		report, err := maintenance.RepairBinIndexes(env.ctx, env.pool, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Changed()).To(BeFalse())
		Expect(report.Present).To(HaveLen(2))
	})

	It("repairs a standalone legacy index", func() {
		_, err := env.pool.Exec(env.ctx, `ALTER TABLE bin_records DROP CONSTRAINT bin_records_qr_code_key`)
		Expect(err).NotTo(HaveOccurred())
		_, err = env.pool.Exec(env.ctx, `CREATE UNIQUE INDEX bin_records_qr_code_key ON bin_records (qr_code)`)
		Expect(err).NotTo(HaveOccurred())

		report, err := maintenance.RepairBinIndexes(env.ctx, env.pool, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Dropped).To(ContainElement("bin_records_qr_code_key"))
		Expect(indexNames()).NotTo(ContainElement("bin_records_qr_code_key"))
	})

	It("rolls back everything when existing data has duplicates", func() {
		_, err := env.pool.Exec(env.ctx, `ALTER TABLE bin_records DROP CONSTRAINT bin_records_rfid_tag_key`)
		Expect(err).NotTo(HaveOccurred())
		Expect(insertBin("bin-1", nil, ptr("RFID-9"))).To(Succeed())
		Expect(insertBin("bin-2", nil, ptr("RFID-9"))).To(Succeed())

		report, err := maintenance.RepairBinIndexes(env.ctx, env.pool, nil)
		Expect(report).To(BeNil())
		Expect(errutil.Code(err)).To(Equal(maintenance.CodeBinIndexDuplicates))

		names := indexNames()
		Expect(names).To(ContainElement("bin_records_qr_code_key"))
		Expect(names).NotTo(ContainElement("bin_records_qr_code_sparse_key"))
	})
})
