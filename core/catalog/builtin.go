package catalog

import "github.com/meterscope/meterscope/core/domain"

// Builtin returns the smart-meter scenarios shipped with the service.
func Builtin() []domain.Scenario {
	return []domain.Scenario{
		{
			Key:         "regionPowerTop10",
			Name:        "Region energy top 10",
			Description: "Total energy per area, highest first, top 10",
			Database:    domain.DatabaseMixed,
			SQL: `
      SELECT
        a.area_name,
        SUM(md.energy) AS total_energy
      FROM tsdb.meter_data md
      JOIN rdb.meter_info mi ON md.meter_id = mi.meter_id
      JOIN rdb.area_info a ON mi.area_id = a.area_id
      GROUP BY a.area_name
      ORDER BY total_energy DESC
      LIMIT 10
    `,
		},
		{
			Key:         "faultyMeters",
			Name:        "Faulty meters",
			Description: "Meters in Fault status with their owners",
			Database:    domain.DatabaseRelational,
			SQL: `
      SELECT
        mi.meter_id,
        u.user_name,
        u.contact,
        a.area_name
      FROM meter_info mi
      JOIN user_info u ON mi.user_id = u.user_id
      JOIN area_info a ON mi.area_id = a.area_id
      WHERE mi.status = 'Fault'
    `,
		},
		{
			Key:         "meterSummary",
			Name:        "Meter summary",
			Description: "Details and data point count for one meter",
			Database:    domain.DatabaseMixed,
			SQL: `
      SELECT
        mi.meter_id,
        mi.voltage_level,
        mi.status,
        u.user_name,
        a.area_name,
        (SELECT COUNT(*)
         FROM tsdb.meter_data md
         WHERE md.meter_id = mi.meter_id) AS data_points
      FROM rdb.meter_info mi
      JOIN rdb.user_info u ON mi.user_id = u.user_id
      JOIN rdb.area_info a ON mi.area_id = a.area_id
      WHERE mi.meter_id = $1
    `,
			Parameters: []string{"meter_id"},
		},
		{
			Key:         "alertDetection",
			Name:        "Alert detection",
			Description: "Meter readings that violate an alarm rule",
			Database:    domain.DatabaseMixed,
			SQL: `
      SELECT
        md.meter_id,
        md.ts,
        ar.rule_name,
        md.voltage,
        md.current,
        md.power
      FROM tsdb.meter_data md
      JOIN rdb.alarm_rules ar ON 1=1
      WHERE (ar.metric = 'voltage'
             AND ((ar.operator = '>' AND md.voltage < ar.threshold)
                  OR (ar.operator = '<' AND md.voltage > ar.threshold)))
         OR (ar.metric = 'current' AND md.current > ar.threshold)
         OR (ar.metric = 'power' AND md.power > ar.threshold)
      ORDER BY md.ts DESC
      LIMIT 100
    `,
		},
		{
			Key:         "regionPowerStats",
			Name:        "Region energy statistics",
			Description: "Total energy and average power per region and area",
			Database:    domain.DatabaseMixed,
			SQL: `
      SELECT
        a.region,
        a.area_name,
        SUM(md.energy) AS total_energy,
        AVG(md.power) AS avg_power
      FROM tsdb.meter_data md
      JOIN rdb.meter_info mi ON md.meter_id = mi.meter_id
      JOIN rdb.area_info a ON mi.area_id = a.area_id
      GROUP BY a.region, a.area_name
    `,
		},
		{
			Key:         "meterTrend24h",
			Name:        "Meter 24h trend",
			Description: "Power and energy readings of one meter over the last 24 hours",
			Database:    domain.DatabaseTimeSeries,
			SQL: `
      SELECT
        md.ts,
        md.power,
        md.energy
      FROM tsdb.meter_data md
      WHERE md.meter_id = $1
        AND md.ts > NOW() - INTERVAL '24 hours'
      ORDER BY md.ts
    `,
			Parameters: []string{"meter_id"},
		},
		{
			Key:         "meterSummaryStats",
			Name:        "Meter status distribution",
			Description: "Meter count and share per area and status",
			Database:    domain.DatabaseRelational,
			SQL: `
      SELECT
        a.area_name,
        mi.status,
        COUNT(*) as meter_count,
        ROUND(COUNT(*) * 100.0 / SUM(COUNT(*)) OVER(), 2) as percentage
      FROM meter_info mi
      JOIN area_info a ON mi.area_id = a.area_id
      GROUP BY a.area_id, a.area_name, mi.status
      ORDER BY a.area_name, mi.status
    `,
		},
		{
			Key:         "userPowerRanking",
			Name:        "User power ranking",
			Description: "Users ranked by power drawn over the last 24 hours",
			Database:    domain.DatabaseMixed,
			SQL: `
      SELECT
        ui.user_name,
        ui.contact,
        ai.area_name,
        mi.meter_id,
        ROUND(SUM(md.power), 2) as total_power,
        ROUND(AVG(md.power), 2) as avg_power,
        COUNT(*) as data_points
      FROM tsdb.meter_data md
      JOIN rdb.meter_info mi ON md.meter_id = mi.meter_id
      JOIN rdb.user_info ui ON mi.user_id = ui.user_id
      JOIN rdb.area_info ai ON mi.area_id = ai.area_id
      WHERE md.ts >= NOW() - INTERVAL '24 hours'
      GROUP BY ui.user_id, ui.user_name, ui.contact, ai.area_name, mi.meter_id
      ORDER BY total_power DESC
      LIMIT 20
    `,
		},
	}
}
