// Package http exposes the scheduler API over gin.
//
// Every route except GET /healthz requires an HS256 bearer token carrying sub,
// company_id, role and exp claims. The router exposes:
//   - GET /company, PUT /company: tenant profile, including the default timezone.
//   - GET /projects, POST /projects, GET /projects/:id: jobs with an optional timezone.
//   - GET /projects/:id/day-bounds?at=: the project day containing an instant.
//   - GET /projects/:id/attendance?date=: work sessions and totals for one project day.
//   - GET /employees, POST /employees, GET /employees/:id: crew members.
//   - GET /assignments, POST /assignments, PUT /assignments/:id, DELETE /assignments/:id:
//     bookings of employees on projects over inclusive date ranges.
//   - POST /assignments/conflicts: a dry run of the double booking check.
//   - POST /work-sessions, POST /work-sessions/:id/end: clock in and clock out.
//
// Calendar dates travel as YYYY-MM-DD strings and instants as RFC 3339 UTC.
// Conflicting bookings answer 409 with the overlapping assignments; resending the
// request with confirm_conflicts set saves it unless double booking is enforced.
// Error messages follow Accept-Language (English or French).
package http
