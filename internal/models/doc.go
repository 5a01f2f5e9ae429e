// Package models defines the core domain models for lessonbook.
//
// # Models
//
//   - Student: an enrolled student with a frozen package snapshot and the two
//     mutable balances (remaining lessons and debt)
//   - AttendanceRecord: one attendance mark per student per calendar day
//   - Payment: an append-only money entry that reduced a student's debt
//   - LessonPackage: catalogue entry a student can be assigned to
//   - User: a staff account (admin, manager or teacher)
//
// # Design Principles
//
// 1. **Plain identifiers**: relationships are ID strings, never pointers, so
// there are no cyclic object graphs (student → package, teacher → user).
// 2. **Frozen snapshots**: PackageCode and PackagePrice on Student are copied
// at assignment time and never recomputed from the catalogue.
// 3. **Integer money**: all monetary values are Money (smallest currency unit).
// 4. **Unix timestamps**: timestamps are Unix seconds; 0 means "not set".
package models
